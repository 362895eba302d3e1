package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/openstar/openstar/internal/config"
	"github.com/openstar/openstar/internal/host"
	"github.com/openstar/openstar/internal/logging"
	"github.com/openstar/openstar/internal/version"
	"github.com/openstar/openstar/loader"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	root        string
	environment string
	listenPort  int
	checkOnly   bool
	showVersion bool

	// opener 仅供测试替换插件加载方式。
	opener loader.Opener
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	boot, err := config.LoadBootstrap(opts.configPath, config.Overrides{
		Root:        opts.root,
		Environment: opts.environment,
		ListenPort:  opts.listenPort,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "加载启动参数失败: %v\n", err)
		return 1
	}

	// 启动顺序：根目录与宿主配置 → 日志 → 模块发现 → 构建阶段 → 运行阶段 → 监听。
	h, err := host.New(host.Options{Bootstrap: boot, Opener: opts.opener})
	if err != nil {
		fmt.Fprintf(stdErr, "初始化宿主失败: %v\n", err)
		return 1
	}
	logger := h.Logger()
	defer logging.Close(logger)

	if opts.checkOnly {
		if err := h.Discover(context.Background()); err != nil {
			logger.WithFields(logging.BaseFields("check_modules", boot.ModulesPath())).WithError(err).Error("模块检查失败")
			return 1
		}
		fields := logging.BaseFields("check_modules", boot.ModulesPath())
		fields["clusters"] = h.Registry().Len()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("模块检查通过")
		return 0
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["root"] = boot.Root
	fields["environment"] = boot.Environment
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("启动参数加载完成")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := h.Run(ctx); err != nil {
		logger.WithError(err).Error("宿主运行失败")
		fmt.Fprintf(stdErr, "宿主运行失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("openstar", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts cliOptions
	fs.StringVar(&opts.configPath, "config", "", "启动参数文件路径（可被 OPENSTAR_CONFIG 覆盖，缺省时只用环境变量与默认值）")
	fs.StringVar(&opts.root, "root", "", "宿主根目录（默认 ./OpenStarRoot）")
	fs.StringVar(&opts.environment, "env", "", "运行环境 development/production")
	fs.IntVar(&opts.listenPort, "port", 0, "监听端口，覆盖 config.json 中的 ListenPort")
	fs.BoolVar(&opts.checkOnly, "check", false, "仅加载模块后退出")
	fs.BoolVar(&opts.showVersion, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	if opts.configPath == "" {
		opts.configPath = os.Getenv(config.EnvPrefix + "_CONFIG")
	}
	return opts, nil
}
