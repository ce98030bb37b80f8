// Package main provides the pecoffdump CLI tool: a read-only PE32+ dumper.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/kx-tools/pecoff/internal/cli"
	"github.com/kx-tools/pecoff/internal/config"
	"github.com/kx-tools/pecoff/internal/pe"
)

var (
	verbose    = flag.Bool("v", false, "详细模式：显示所有导入/导出函数")
	jsonOutput = flag.Bool("json", false, "以JSON格式输出报告")
	configPath = flag.String("config", "", "配置文件路径（默认查找当前目录下的.pecoffrc.toml）")
)

var log = logrus.New()

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}
	if *verbose {
		cfg.Verbose = true
	}
	if cfg.Color == "never" {
		color.NoColor = true
	} else if cfg.Color == "always" {
		color.NoColor = false
	}

	if err := run(flag.Arg(0), cfg); err != nil {
		fail(err)
	}
}

func run(path string, cfg config.Config) error {
	start := time.Now()

	img, err := pe.Open(path)
	if err != nil {
		return err
	}
	log.WithField("file", path).Info("已打开PE文件")

	report := img.BuildReport(cfg.SymbolServerHost)
	log.WithFields(logrus.Fields{
		"duration":   time.Since(start),
		"sections":   len(report.Sections),
		"imports":    len(report.Imports),
		"exceptions": len(report.Exceptions),
	}).Info("解析完成")

	for _, e := range report.Exceptions {
		if e.ChainTruncated {
			log.Warn("检测到未能完全解析的异常展开链")
			break
		}
	}

	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	reporter := cli.NewReporter(report)
	reporter.SetVerbose(cfg.Verbose)
	reporter.Print()

	return nil
}

func fail(err error) {
	red := color.New(color.FgRed, color.Bold)
	_, _ = red.Fprintf(os.Stderr, "\n错误: %v\n\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "用法: pecoffdump [选项] <PE文件路径>")
	flag.PrintDefaults()
}
