package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"

	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/scheduler"
)

// InprocLauncher 在当前进程内执行尝试，测试与受限环境使用
type InprocLauncher struct{}

// Launch 直接调用求解管线
func (l *InprocLauncher) Launch(ctx context.Context, req *WorkerRequest) (*scheduler.AttemptResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return scheduler.RunAttempt(ctx, req.People, req.Config), nil
}

// WorkerCommand 子进程执行器调起的子命令名
const WorkerCommand = "solve-worker"

// ProcessLauncher 在独立子进程中执行尝试
// 子进程即本程序自身的隐藏子命令：标准输入读请求 JSON，
// 标准输出写结果 JSON，日志走标准错误。子进程崩溃只损失
// 该种子的尝试，不影响其余种子。
type ProcessLauncher struct {
	// Binary 子进程可执行文件路径，空则使用当前可执行文件
	Binary string
}

// Launch 派生子进程并等待其结果
func (l *ProcessLauncher) Launch(ctx context.Context, req *WorkerRequest) (*scheduler.AttemptResult, error) {
	bin := l.Binary
	if bin == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "定位可执行文件失败")
		}
		bin = exe
	}

	input, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "序列化求解请求失败")
	}

	cmd := exec.CommandContext(ctx, bin, WorkerCommand)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(err, errors.CodeSolverWorker, "求解子进程异常退出")
	}

	var result scheduler.AttemptResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, errors.Wrap(err, errors.CodeSolverWorker, "解析子进程输出失败")
	}
	return &result, nil
}

// RunWorker 子命令入口：从 r 读请求，求解后把结果写到 w
func RunWorker(ctx context.Context, r *os.File, w *os.File) error {
	var req WorkerRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "解析求解请求失败")
	}
	result := scheduler.RunAttempt(ctx, req.People, req.Config)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "写出求解结果失败")
	}
	return nil
}
