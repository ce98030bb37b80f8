// Package cli formats a pe.Report for terminal display.
package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/kx-tools/pecoff/internal/pe"
)

// Reporter formats and prints a pe.Report.
type Reporter struct {
	report  *pe.Report
	verbose bool
}

// NewReporter creates a reporter for the given report.
func NewReporter(report *pe.Report) *Reporter {
	return &Reporter{report: report}
}

// SetVerbose enables verbose mode: import/export lists are printed in
// full instead of truncated to their first page.
func (r *Reporter) SetVerbose(verbose bool) {
	r.verbose = verbose
}

// Print outputs the complete report.
func (r *Reporter) Print() {
	r.printHeader()
	r.printBasicInfo()
	r.printSections()
	r.printImports()
	r.printExports()
	r.printRelocations()
	r.printExceptions()
	r.printTLS()
	r.printDebug()
}

func (r *Reporter) printHeader() {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Println("\n╔════════════════════════════════════════╗")
	cyan.Println("║           PE 解析报告                   ║")
	cyan.Println("╚════════════════════════════════════════╝")
}

func (r *Reporter) printBasicInfo() {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Println("\n【基本信息】")

	fmt.Printf("  %-20s: %s\n", "架构", r.report.Architecture)
	fmt.Printf("  %-20s: %s\n", "子系统", r.report.Subsystem)
	fmt.Printf("  %-20s: 0x%X\n", "入口点", r.report.EntryPoint)
	fmt.Printf("  %-20s: 0x%X\n", "镜像基址", r.report.ImageBase)
}

func (r *Reporter) printSections() {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("\n【节区信息】(共 %d 个)\n", len(r.report.Sections))

	if len(r.report.Sections) == 0 {
		fmt.Println("  未发现节区")
		return
	}

	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("  %-10s %-12s %-15s %-8s %-10s\n", "名称", "虚拟地址", "原始大小", "权限", "熵")
	fmt.Println(strings.Repeat("-", 100))

	for _, s := range r.report.Sections {
		permColor := color.New(color.FgWhite)
		if s.Permissions == "RWX" {
			permColor = color.New(color.FgRed, color.Bold)
		} else if strings.Contains(s.Permissions, "X") {
			permColor = color.New(color.FgYellow)
		}

		fmt.Printf("  %-10s 0x%08X   %-15s ", s.Name, s.VirtualAddress, formatSize(int64(s.SizeOfRawData)))
		permColor.Printf("%-8s", s.Permissions)
		fmt.Printf(" %.4f\n", s.Entropy)
	}
	fmt.Println(strings.Repeat("-", 100))
}

func (r *Reporter) printImports() {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("\n【导入表】(共 %d 个DLL)\n", len(r.report.Imports))

	if len(r.report.Imports) == 0 {
		fmt.Println("  未发现导入")
		return
	}

	for i, imp := range r.report.Imports {
		green := color.New(color.FgGreen)
		green.Printf("  %3d. %s (%d 个函数)\n", i+1, imp.DLLName, len(imp.Entries))

		maxDisplay := len(imp.Entries)
		if !r.verbose && maxDisplay > 10 {
			maxDisplay = 10
		}
		for j := 0; j < maxDisplay; j++ {
			e := imp.Entries[j]
			if e.ByOrdinal {
				fmt.Printf("       - (序号 %d)\n", e.Ordinal)
			} else {
				fmt.Printf("       - %s\n", e.Name)
			}
		}
		if len(imp.Entries) > maxDisplay {
			gray := color.New(color.FgHiBlack)
			gray.Printf("       ... (还有 %d 个函数)\n", len(imp.Entries)-maxDisplay)
		}
	}
}

func (r *Reporter) printExports() {
	yellow := color.New(color.FgYellow, color.Bold)
	count := 0
	if r.report.Exports != nil {
		count = len(r.report.Exports.Entries)
	}
	yellow.Printf("\n【导出表】(共 %d 个函数)\n", count)

	if count == 0 {
		fmt.Println("  未发现导出")
		return
	}

	maxDisplay := count
	if !r.verbose && maxDisplay > 20 {
		maxDisplay = 20
	}

	green := color.New(color.FgGreen)
	for i := 0; i < maxDisplay; i++ {
		e := r.report.Exports.Entries[i]
		if e.IsForwarder {
			green.Printf("  %3d. %s (转发, 序号 %d)\n", i+1, e.Name, e.ForwarderOrdinal)
		} else {
			green.Printf("  %3d. %s (0x%X)\n", i+1, e.Name, e.Address)
		}
	}
	if count > maxDisplay {
		gray := color.New(color.FgHiBlack)
		gray.Printf("  ... (还有 %d 个函数)\n", count-maxDisplay)
	}
}

func (r *Reporter) printRelocations() {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("\n【重定位表】(共 %d 个块)\n", len(r.report.Relocations))

	total := 0
	for _, b := range r.report.Relocations {
		total += len(b.Entries)
	}
	if len(r.report.Relocations) == 0 {
		fmt.Println("  未发现重定位")
		return
	}
	fmt.Printf("  %d 个块, 共 %d 个条目\n", len(r.report.Relocations), total)
}

func (r *Reporter) printExceptions() {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("\n【异常目录】(共 %d 个条目)\n", len(r.report.Exceptions))

	truncated := 0
	for _, e := range r.report.Exceptions {
		if e.ChainTruncated {
			truncated++
		}
	}
	if truncated > 0 {
		red := color.New(color.FgRed)
		red.Printf("  %d 个展开链未能完全解析\n", truncated)
	}
}

func (r *Reporter) printTLS() {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Println("\n【TLS】")

	if r.report.TLS == nil {
		fmt.Println("  未发现TLS目录")
		return
	}
	fmt.Printf("  %-20s: %d\n", "回调数量", len(r.report.TLS.Callbacks))
	for i, cb := range r.report.TLS.Callbacks {
		fmt.Printf("       - [%d] 0x%X\n", i, cb)
	}
}

func (r *Reporter) printDebug() {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Println("\n【调试信息】")

	if r.report.PDBPath != "" {
		fmt.Printf("  %-20s: %s\n", "PDB路径", r.report.PDBPath)
	}
	if r.report.PDBURL != "" {
		fmt.Printf("  %-20s: %s\n", "PDB下载地址", r.report.PDBURL)
	}
	if r.report.PDBPath == "" && r.report.PDBURL == "" {
		fmt.Println("  未发现调试信息")
	}
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
