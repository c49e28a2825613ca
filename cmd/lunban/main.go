// LunBan 命令行工具
// 不依赖HTTP服务，直接在本机求解与校验排班

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/edo"
	"github.com/lunban/lunban/pkg/scheduler/optimizer"
	"github.com/lunban/lunban/pkg/scheduler/staffing"
	"github.com/lunban/lunban/pkg/stats"
	"github.com/lunban/lunban/pkg/validator"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// rosterInput 求解输入文件格式
type rosterInput struct {
	People []model.Person      `json:"people" yaml:"people"`
	Config *model.SolverConfig `json:"config,omitempty" yaml:"config,omitempty"`
}

// validateInput 校验输入文件格式
type validateInput struct {
	People   []model.Person       `json:"people" yaml:"people"`
	Config   *model.SolverConfig  `json:"config,omitempty" yaml:"config,omitempty"`
	Schedule *model.Schedule      `json:"schedule" yaml:"schedule"`
	Weekend  *model.WeekendResult `json:"weekend,omitempty" yaml:"weekend,omitempty"`
}

func main() {
	_ = godotenv.Load()
	logger.Init(logger.Config{
		Level:  os.Getenv("APP_LOG_LEVEL"),
		Format: "console",
		Output: "stderr",
	})

	root := &cobra.Command{
		Use:           "lunban",
		Short:         "排班求解命令行工具",
		Version:       fmt.Sprintf("%s (build %s, commit %s)", Version, BuildTime, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSolveCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newWorkerCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func newSolveCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		attempts   int
		parallel   int
		weeks      int
		seed       int64
		budget     time.Duration
		inProcess  bool
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "多种子求解排班",
		RunE: func(cmd *cobra.Command, args []string) error {
			var input rosterInput
			if err := readInput(inputPath, &input); err != nil {
				return err
			}
			if len(input.People) == 0 {
				return errors.InvalidInput("people", "输入文件未包含人员")
			}

			cfg := model.DefaultSolverConfig()
			if input.Config != nil {
				cfg = *input.Config
			}
			if weeks > 0 {
				cfg.Weeks = weeks
			}
			if seed != 0 {
				cfg.Seed = seed
			}
			if budget > 0 {
				cfg.TimeBudget = budget
			}
			cfg = cfg.Normalize()

			var launcher optimizer.Launcher
			if inProcess {
				launcher = &optimizer.InprocLauncher{}
			} else {
				launcher = &optimizer.ProcessLauncher{}
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			opt := optimizer.New(launcher,
				optimizer.WithAttempts(attempts),
				optimizer.WithParallelism(parallel))
			best := opt.Run(ctx, input.People, cfg)

			if err := writeOutput(outputPath, best); err != nil {
				return err
			}
			if best.Status == model.StatusInfeasible || best.Status == model.StatusUnknown {
				return errors.New(errors.CodeNoFeasibleSolution,
					fmt.Sprintf("求解未成功，状态: %s", best.Status))
			}
			logger.Info().
				Int64("seed", best.Seed).
				Str("status", string(best.Status)).
				Float64("score", best.Score).
				Msg("求解完成")
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "人员输入文件 (yaml/json)，'-' 表示标准输入")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "-", "结果输出文件，'-' 表示标准输出")
	cmd.Flags().IntVar(&attempts, "attempts", 4, "种子尝试数")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "并行尝试数 (0 表示按CPU数)")
	cmd.Flags().IntVar(&weeks, "weeks", 0, "排班周数 (覆盖输入文件配置)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "基础随机种子 (覆盖输入文件配置)")
	cmd.Flags().DurationVar(&budget, "time-budget", 0, "工作日求解时间预算 (覆盖输入文件配置)")
	cmd.Flags().BoolVar(&inProcess, "in-process", false, "关闭子进程隔离")
	cmd.MarkFlagRequired("input")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "独立校验既有排班结果",
		RunE: func(cmd *cobra.Command, args []string) error {
			var input validateInput
			if err := readInput(inputPath, &input); err != nil {
				return err
			}
			if len(input.People) == 0 {
				return errors.InvalidInput("people", "输入文件未包含人员")
			}
			if input.Schedule == nil {
				return errors.InvalidInput("schedule", "输入文件未包含排班结果")
			}

			cfg := model.DefaultSolverConfig()
			if input.Config != nil {
				cfg = *input.Config
			}
			if input.Schedule.Weeks > 0 {
				cfg.Weeks = input.Schedule.Weeks
			}
			cfg = cfg.Normalize()

			plan := edo.Allocate(input.People, cfg.Weeks)
			weeks := staffing.Derive(input.People, plan, cfg.Staffing, cfg.Weeks)

			checker := validator.NewChecker(input.People, cfg, plan, weeks)
			result := checker.Validate(input.Schedule, input.Weekend)
			fairness := stats.NewFairnessCalculator(cfg.Fairness).Calculate(input.People, input.Schedule)

			out := map[string]interface{}{
				"clean":      result.Clean(),
				"score":      stats.Score(cfg.Score, result, fairness),
				"summary":    result.Summary(),
				"violations": result.Violations,
				"fairness":   fairness,
			}
			if err := writeOutput("-", out); err != nil {
				return err
			}
			if !result.Clean() {
				return errors.New(errors.CodeValidationFail, "排班结果存在硬约束违规")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "校验输入文件 (yaml/json)，'-' 表示标准输入")
	cmd.MarkFlagRequired("input")

	return cmd
}

// newWorkerCmd 隐藏的子进程求解模式
// 由 ProcessLauncher 调起，stdin 收任务，stdout 回结果
func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    optimizer.WorkerCommand,
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return optimizer.RunWorker(ctx, os.Stdin, os.Stdout)
		},
	}
}

// readInput 按扩展名解析 YAML 或 JSON 输入
func readInput(path string, v interface{}) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("读取输入失败: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("解析JSON输入失败: %w", err)
		}
	default:
		// yaml.v3 兼容 JSON，标准输入也走这条路径
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("解析输入失败: %w", err)
		}
	}
	return nil
}

// writeOutput 输出结果 JSON
func writeOutput(path string, v interface{}) error {
	var f *os.File
	if path == "-" {
		f = os.Stdout
	} else {
		var err error
		f, err = os.Create(path)
		if err != nil {
			return fmt.Errorf("创建输出文件失败: %w", err)
		}
		defer f.Close()
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("写出结果失败: %w", err)
	}
	return nil
}
