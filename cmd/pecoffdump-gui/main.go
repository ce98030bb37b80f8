// Package main provides the pecoffdump GUI: a read-only PE32+ viewer.
package main

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"github.com/kx-tools/pecoff/internal/config"
	"github.com/kx-tools/pecoff/internal/pe"
)

var log = logrus.New()

func main() {
	cfg, err := config.Load("")
	if err != nil {
		cfg = config.Default()
	}

	myApp := app.New()
	myWindow := myApp.NewWindow("pecoffdump - PE文件查看器")
	myWindow.Resize(fyne.NewSize(900, 700))

	filePathEntry := widget.NewEntry()
	filePathEntry.SetPlaceHolder("选择PE文件...")
	statusLabel := widget.NewLabel("就绪")

	overview := newOutputBox()
	sections := newOutputBox()
	imports := newOutputBox()
	exports := newOutputBox()
	relocations := newOutputBox()
	exceptions := newOutputBox()
	tls := newOutputBox()
	debug := newOutputBox()

	fileButton := widget.NewButton("选择文件", func() {
		dialog.ShowFileOpen(func(file fyne.URIReadCloser, err error) {
			if err != nil || file == nil {
				return
			}
			defer func() { _ = file.Close() }()
			filePathEntry.SetText(file.URI().Path())
		}, myWindow)
	})

	parseButton := widget.NewButton("解析", func() {
		if filePathEntry.Text == "" {
			dialog.ShowError(fmt.Errorf("请先选择PE文件"), myWindow)
			return
		}

		statusLabel.SetText("正在解析...")
		path := filePathEntry.Text
		go func() {
			img, err := pe.Open(path)
			if err != nil {
				dialog.ShowError(err, myWindow)
				statusLabel.SetText("解析失败")
				return
			}

			report := img.BuildReport(cfg.SymbolServerHost)
			log.WithField("file", path).Info("GUI解析完成")

			overview.SetText(formatOverview(report))
			sections.SetText(formatSections(report))
			imports.SetText(formatImports(report))
			exports.SetText(formatExports(report))
			relocations.SetText(formatRelocations(report))
			exceptions.SetText(formatExceptions(report))
			tls.SetText(formatTLS(report))
			debug.SetText(formatDebug(report))

			statusLabel.SetText("解析完成")
		}()
	})

	tabs := container.NewAppTabs(
		container.NewTabItem("概览", overview),
		container.NewTabItem("节区", sections),
		container.NewTabItem("导入", imports),
		container.NewTabItem("导出", exports),
		container.NewTabItem("重定位", relocations),
		container.NewTabItem("异常", exceptions),
		container.NewTabItem("TLS", tls),
		container.NewTabItem("调试/PDB", debug),
	)

	top := container.NewBorder(nil, nil, nil, fileButton, filePathEntry)
	content := container.NewBorder(
		container.NewVBox(top, parseButton, statusLabel),
		nil, nil, nil,
		tabs,
	)

	myWindow.SetContent(content)
	myWindow.ShowAndRun()
}

func newOutputBox() *widget.Entry {
	e := widget.NewMultiLineEntry()
	e.Disable()
	return e
}

func formatOverview(r *pe.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "架构: %s\n", r.Architecture)
	fmt.Fprintf(&b, "子系统: %s\n", r.Subsystem)
	fmt.Fprintf(&b, "镜像基址: 0x%X\n", r.ImageBase)
	fmt.Fprintf(&b, "入口点: 0x%X\n", r.EntryPoint)
	return b.String()
}

func formatSections(r *pe.Report) string {
	var b strings.Builder
	for _, s := range r.Sections {
		fmt.Fprintf(&b, "%-10s VA=0x%08X 大小=%d 权限=%s 熵=%.4f\n",
			s.Name, s.VirtualAddress, s.SizeOfRawData, s.Permissions, s.Entropy)
	}
	if b.Len() == 0 {
		return "未发现节区"
	}
	return b.String()
}

func formatImports(r *pe.Report) string {
	var b strings.Builder
	for _, imp := range r.Imports {
		fmt.Fprintf(&b, "%s (%d 个函数)\n", imp.DLLName, len(imp.Entries))
		for _, e := range imp.Entries {
			if e.ByOrdinal {
				fmt.Fprintf(&b, "  - (序号 %d)\n", e.Ordinal)
			} else {
				fmt.Fprintf(&b, "  - %s\n", e.Name)
			}
		}
	}
	if b.Len() == 0 {
		return "未发现导入"
	}
	return b.String()
}

func formatExports(r *pe.Report) string {
	if r.Exports == nil || len(r.Exports.Entries) == 0 {
		return "未发现导出"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "库名称: %s\n", r.Exports.LibraryName)
	for _, e := range r.Exports.Entries {
		if e.IsForwarder {
			fmt.Fprintf(&b, "%s (转发, 序号 %d)\n", e.Name, e.ForwarderOrdinal)
		} else {
			fmt.Fprintf(&b, "%s (0x%X)\n", e.Name, e.Address)
		}
	}
	return b.String()
}

func formatRelocations(r *pe.Report) string {
	if len(r.Relocations) == 0 {
		return "未发现重定位"
	}
	var b strings.Builder
	for _, block := range r.Relocations {
		fmt.Fprintf(&b, "页 0x%08X: %d 个条目\n", block.VirtualAddress, len(block.Entries))
		for _, e := range block.Entries {
			fmt.Fprintf(&b, "  - %s @ 0x%03X\n", pe.RelocationTypeName(e.Type), e.Offset)
		}
	}
	return b.String()
}

func formatExceptions(r *pe.Report) string {
	if len(r.Exceptions) == 0 {
		return "未发现异常目录"
	}
	var b strings.Builder
	for _, e := range r.Exceptions {
		fmt.Fprintf(&b, "0x%08X-0x%08X", e.BeginAddress, e.EndAddress)
		if e.ChainTruncated {
			b.WriteString(" (展开链未能完全解析)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatTLS(r *pe.Report) string {
	if r.TLS == nil {
		return "未发现TLS目录"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "原始数据范围: 0x%X - 0x%X\n", r.TLS.StartAddressOfRawData, r.TLS.EndAddressOfRawData)
	for i, cb := range r.TLS.Callbacks {
		fmt.Fprintf(&b, "回调[%d]: 0x%X\n", i, cb)
	}
	return b.String()
}

func formatDebug(r *pe.Report) string {
	var b strings.Builder
	if r.PDBPath != "" {
		fmt.Fprintf(&b, "PDB路径: %s\n", r.PDBPath)
	}
	if r.PDBURL != "" {
		fmt.Fprintf(&b, "PDB下载地址: %s\n", r.PDBURL)
	}
	if b.Len() == 0 {
		return "未发现调试信息"
	}
	return b.String()
}
