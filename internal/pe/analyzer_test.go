package pe

import "testing"

func TestSectionPermissions(t *testing.T) {
	tests := []struct {
		name string
		char uint32
		want string
	}{
		{name: "Read only", char: scnMemRead, want: "R--"},
		{name: "Read Write", char: scnMemRead | scnMemWrite, want: "RW-"},
		{name: "Read Execute", char: scnMemRead | scnMemExecute, want: "R-X"},
		{name: "Read Write Execute (RWX)", char: scnMemRead | scnMemWrite | scnMemExecute, want: "RWX"},
		{name: "Write Execute", char: scnMemWrite | scnMemExecute, want: "-WX"},
		{name: "No permissions", char: 0, want: "---"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sectionPermissions(tt.char); got != tt.want {
				t.Errorf("sectionPermissions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubsystemName(t *testing.T) {
	tests := []struct {
		name      string
		subsystem uint16
		want      string
	}{
		{name: "Windows GUI", subsystem: subsystemWindowsGUI, want: "Windows GUI"},
		{name: "Windows Console", subsystem: subsystemWindowsCUI, want: "Windows 控制台"},
		{name: "Native", subsystem: subsystemNative, want: "Native"},
		{name: "Unknown subsystem", subsystem: 0xFF, want: "未知 (0xFF)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := subsystemName(tt.subsystem); got != tt.want {
				t.Errorf("subsystemName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildReportNeverErrors(t *testing.T) {
	buf := newPEBuilder().
		addSection(".text", 0x1000, []byte{0x55, 0x48, 0x89, 0xE5}, true).
		addSection(".data", 0x2000, []byte{0x01, 0x02, 0x03, 0x04}, false).
		build()

	img, err := New(buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	report := img.BuildReport("")
	if report == nil {
		t.Fatal("BuildReport() returned nil")
	}
	if report.Architecture != "x64 (64位)" {
		t.Errorf("Architecture = %v, want x64 (64位)", report.Architecture)
	}
	if len(report.Sections) != 2 {
		t.Fatalf("len(Sections) = %d, want 2", len(report.Sections))
	}
	if report.EntryPoint != img.GetImageBase()+0x1000 {
		t.Errorf("EntryPoint = 0x%X, want 0x%X", report.EntryPoint, img.GetImageBase()+0x1000)
	}
	for _, s := range report.Sections {
		if s.VirtualSize == 0 {
			t.Errorf("section %s VirtualSize = 0, want nonzero", s.Name)
		}
	}
}
