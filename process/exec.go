package process

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
)

const (
	chunkSize = 4096
	// stdout chunks buffered between the pipe reader and the handler
	chunkQueueSize = 16
)

// ExecFactory creates processes backed by os/exec.
type ExecFactory struct{}

func (ExecFactory) Create(info StartInfo) Process {
	return &execProcess{info: info, exitCode: -1}
}

type execProcess struct {
	info StartInfo
	cmd  *exec.Cmd

	// done is closed once every pipe reader hit EOF and the handler has seen
	// the last chunk. handlerErr is written before done is closed.
	done       chan struct{}
	handlerErr error

	exitCode int
}

func (p *execProcess) Start() error {
	if p.cmd != nil {
		return errors.New("process already started")
	}
	argv, err := shellquote.Split(p.info.Command)
	if err != nil {
		return fmt.Errorf("parse command line: %w", err)
	}
	if len(argv) == 0 {
		return errors.New("empty command line")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	var stderr io.ReadCloser
	if p.info.ForwardOutputToLog {
		if stderr, err = cmd.StderrPipe(); err != nil {
			return fmt.Errorf("failed to get stderr pipe: %w", err)
		}
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	p.cmd = cmd
	p.done = make(chan struct{})
	log.Debug().Str("process", p.info.Name).Int("pid", cmd.Process.Pid).Msg("process: started")

	chunks := make(chan []byte, chunkQueueSize)
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		defer close(chunks)
		readChunks(stdout, chunks)
	}()
	if stderr != nil {
		readers.Add(1)
		go func() {
			defer readers.Done()
			w := &lineLogger{name: p.info.Name, stream: "stderr"}
			_, _ = io.Copy(w, stderr)
			w.Flush()
		}()
	}
	go p.consume(chunks, &readers)
	return nil
}

func readChunks(r io.Reader, chunks chan<- []byte) {
	for {
		buf := make([]byte, chunkSize)
		n, err := r.Read(buf)
		if n > 0 {
			chunks <- buf[:n]
		}
		if err != nil {
			if err != io.EOF {
				log.Debug().Err(err).Msg("process: stdout read error")
			}
			return
		}
	}
}

// consume delivers chunks to the handler. After a handler error the pipe is
// still drained so the process does not block on a full pipe.
func (p *execProcess) consume(chunks <-chan []byte, readers *sync.WaitGroup) {
	var logw *lineLogger
	if p.info.ForwardOutputToLog {
		logw = &lineLogger{name: p.info.Name, stream: "stdout"}
	}
	for chunk := range chunks {
		if logw != nil {
			_, _ = logw.Write(chunk)
		}
		if p.info.StdoutHandler != nil && p.handlerErr == nil {
			p.handlerErr = p.info.StdoutHandler(chunk)
		}
	}
	if logw != nil {
		logw.Flush()
	}
	readers.Wait()
	close(p.done)
}

func (p *execProcess) RunUntilExit() error {
	if p.cmd == nil {
		return errors.New("process not started")
	}
	// All reads must complete before Wait closes the pipes.
	<-p.done
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return err
	}
	p.exitCode = p.cmd.ProcessState.ExitCode()
	log.Debug().Str("process", p.info.Name).Int("exitCode", p.exitCode).Msg("process: exited")
	if p.handlerErr != nil {
		return fmt.Errorf("stdout handler: %w", p.handlerErr)
	}
	return nil
}

func (p *execProcess) ExitCode() int {
	return p.exitCode
}

// lineLogger writes every complete line it receives as one log entry.
type lineLogger struct {
	name    string
	stream  string
	pending []byte
}

func (w *lineLogger) Write(b []byte) (int, error) {
	w.pending = append(w.pending, b...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		w.emit(w.pending[:i])
		w.pending = w.pending[i+1:]
	}
	return len(b), nil
}

func (w *lineLogger) Flush() {
	if len(w.pending) > 0 {
		w.emit(w.pending)
		w.pending = nil
	}
}

func (w *lineLogger) emit(line []byte) {
	log.Info().Str("process", w.name).Str("stream", w.stream).Msg(string(bytes.TrimRight(line, "\r")))
}
