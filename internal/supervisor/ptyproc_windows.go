//go:build windows

package supervisor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"github.com/cuemby/flowrunner/internal/model"
	"github.com/cuemby/flowrunner/pkg/ferr"
	"golang.org/x/sys/windows"
)

// windowsProc is the Windows process handle: a pseudo-console (ConPTY)
// bound to a pipe pair, with a process created via extended startup
// attributes pointing at the pseudo-console, and a blocking reader
// goroutine on the pipe's read end (CreatePseudoConsole +
// InitializeProcThreadAttributeList/UpdateProcThreadAttribute +
// CreateProcess).
type windowsProc struct {
	hProcess windows.Handle
	hThread  windows.Handle
	hPC      uintptr // HPCON
	stdinW   windows.Handle
	stdoutR  windows.Handle

	readerDone chan struct{}

	mu       sync.Mutex
	exited   bool
	exitCode int32
	success  bool

	killOnce sync.Once
	closed   atomic.Bool
}

var (
	kernel32                       = windows.NewLazySystemDLL("kernel32.dll")
	procCreatePseudoConsole        = kernel32.NewProc("CreatePseudoConsole")
	procClosePseudoConsole         = kernel32.NewProc("ClosePseudoConsole")
	procInitializeProcThreadAttrs  = kernel32.NewProc("InitializeProcThreadAttributeList")
	procUpdateProcThreadAttribute  = kernel32.NewProc("UpdateProcThreadAttribute")
)

const (
	procThreadAttributePseudoConsole = 0x00020016
	extendedStartupInfoPresent       = 0x00080000
)

// coord mirrors the Win32 COORD struct.
type coord struct {
	X, Y int16
}

func spawn(task *model.Task, readBufSize int, window *Window) (proc, error) {
	var stdinR, stdinW, stdoutR, stdoutW windows.Handle
	if err := windows.CreatePipe(&stdinR, &stdinW, nil, 0); err != nil {
		return nil, fmt.Errorf("%w: create stdin pipe: %v", ferr.ErrOSError, err)
	}
	if err := windows.CreatePipe(&stdoutR, &stdoutW, nil, 0); err != nil {
		windows.CloseHandle(stdinR)
		windows.CloseHandle(stdinW)
		return nil, fmt.Errorf("%w: create stdout pipe: %v", ferr.ErrOSError, err)
	}

	size := coord{X: 80, Y: 24}
	var hPC uintptr
	ret, _, _ := procCreatePseudoConsole.Call(
		uintptr(*(*uint32)(unsafe.Pointer(&size))),
		uintptr(stdinR), uintptr(stdoutW), 0,
		uintptr(unsafe.Pointer(&hPC)))
	if ret != 0 { // S_OK == 0
		windows.CloseHandle(stdinR)
		windows.CloseHandle(stdinW)
		windows.CloseHandle(stdoutR)
		windows.CloseHandle(stdoutW)
		return nil, fmt.Errorf("%w: CreatePseudoConsole failed: 0x%x", ferr.ErrOSError, ret)
	}

	hProcess, hThread, err := createChildProcess(task, hPC)
	windows.CloseHandle(stdinR)
	windows.CloseHandle(stdoutW)
	if err != nil {
		procClosePseudoConsole.Call(hPC)
		windows.CloseHandle(stdinW)
		windows.CloseHandle(stdoutR)
		return nil, err
	}

	p := &windowsProc{
		hProcess:   hProcess,
		hThread:    hThread,
		hPC:        hPC,
		stdinW:     stdinW,
		stdoutR:    stdoutR,
		readerDone: make(chan struct{}),
	}

	go p.readLoop(readBufSize, window)

	return p, nil
}

func createChildProcess(task *model.Task, hPC uintptr) (hProcess, hThread windows.Handle, err error) {
	if task.Exec == "" {
		return 0, 0, fmt.Errorf("%w: empty exec", ferr.ErrInvalidArgument)
	}

	var attrListSize uintptr
	procInitializeProcThreadAttrs.Call(0, 1, 0, uintptr(unsafe.Pointer(&attrListSize)))

	attrList := make([]byte, attrListSize)
	ret, _, lastErr := procInitializeProcThreadAttrs.Call(
		uintptr(unsafe.Pointer(&attrList[0])), 1, 0, uintptr(unsafe.Pointer(&attrListSize)))
	if ret == 0 {
		return 0, 0, fmt.Errorf("%w: InitializeProcThreadAttributeList: %v", ferr.ErrOSError, lastErr)
	}

	ret, _, lastErr = procUpdateProcThreadAttribute.Call(
		uintptr(unsafe.Pointer(&attrList[0])), 0,
		procThreadAttributePseudoConsole, hPC, unsafe.Sizeof(hPC), 0, 0)
	if ret == 0 {
		return 0, 0, fmt.Errorf("%w: UpdateProcThreadAttribute: %v", ferr.ErrOSError, lastErr)
	}

	cmdLine := buildCommandLine(task)
	cmdLinePtr, err := syscall.UTF16PtrFromString(cmdLine)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ferr.ErrInvalidArgument, err)
	}

	var workDirPtr *uint16
	if task.WorkDir != "" {
		workDirPtr, err = syscall.UTF16PtrFromString(task.WorkDir)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %v", ferr.ErrInvalidArgument, err)
		}
	}

	si := startupInfoEx{}
	si.StartupInfo.Cb = uint32(unsafe.Sizeof(si))
	si.AttributeList = uintptr(unsafe.Pointer(&attrList[0]))

	var pi windows.ProcessInformation
	ret64, _, lastErr := procCreateProcessW.Call(
		0,
		uintptr(unsafe.Pointer(cmdLinePtr)),
		0, 0, 0,
		extendedStartupInfoPresent,
		0,
		uintptr(unsafe.Pointer(workDirPtr)),
		uintptr(unsafe.Pointer(&si)),
		uintptr(unsafe.Pointer(&pi)))
	if ret64 == 0 {
		return 0, 0, fmt.Errorf("%w: CreateProcess: %v", ferr.ErrOSError, lastErr)
	}

	return pi.Process, pi.Thread, nil
}

var (
	procCreateProcessW = kernel32.NewProc("CreateProcessW")
)

// startupInfoEx mirrors STARTUPINFOEXW, not exposed by x/sys/windows.
type startupInfoEx struct {
	StartupInfo  windows.StartupInfo
	AttributeList uintptr
}

func buildCommandLine(task *model.Task) string {
	line := task.Exec
	for _, a := range task.Args {
		line += " " + a
	}
	return line
}

func (p *windowsProc) readLoop(bufSize int, window *Window) {
	defer close(p.readerDone)

	buf := make([]byte, bufSize)
	for {
		var n uint32
		err := windows.ReadFile(p.stdoutR, buf, &n, nil)
		if n > 0 {
			chunk := make(model.Chunk, n)
			copy(chunk, buf[:n])
			window.Push(chunk)
		}
		if err != nil {
			return
		}
		if n == 0 {
			return
		}
	}
}

func (p *windowsProc) tryWait() (done bool, exitCode int32, success bool, err error) {
	p.mu.Lock()
	if p.exited {
		code, ok := p.exitCode, p.success
		p.mu.Unlock()
		return true, code, ok, nil
	}
	p.mu.Unlock()

	var code uint32
	if err := windows.GetExitCodeProcess(p.hProcess, &code); err != nil {
		return false, 0, false, fmt.Errorf("%w: GetExitCodeProcess: %v", ferr.ErrOSError, err)
	}
	const stillActive = 259
	if code == stillActive {
		return false, 0, false, nil
	}

	p.mu.Lock()
	p.exited = true
	p.exitCode = int32(code)
	p.success = code == 0
	p.mu.Unlock()

	return true, int32(code), code == 0, nil
}

func (p *windowsProc) kill() error {
	var err error
	p.killOnce.Do(func() {
		err = windows.TerminateProcess(p.hProcess, 1)
	})
	return err
}

func (p *windowsProc) close() {
	if p.closed.CompareAndSwap(false, true) {
		windows.CloseHandle(p.stdinW)
		<-p.readerDone
		windows.CloseHandle(p.stdoutR)
		procClosePseudoConsole.Call(p.hPC)
		windows.CloseHandle(p.hThread)
		windows.CloseHandle(p.hProcess)
	}
}
