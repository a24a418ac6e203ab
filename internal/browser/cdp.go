package browser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// cdpStartupDelay gives Chrome time to initialize the debugging pipe
// before the first command; cdpResponseTimeout bounds the wait for the
// loadUnpacked reply.
const (
	cdpStartupDelay    = 2 * time.Second
	cdpResponseTimeout = 10 * time.Second
)

// Pipes holds the daemon ends of the CDP debugging pipe. Chrome treats
// EOF on its end as a shutdown request, so both files must stay open
// for the lifetime of the Chrome process.
type Pipes struct {
	// Writer feeds Chrome's fd 3, Reader drains Chrome's fd 4.
	Writer *os.File
	Reader *os.File
}

// AttachCDP wires a CDP pipe pair onto cmd. Chrome expects to read
// commands on fd 3 and write responses on fd 4; ExtraFiles places the
// child ends exactly there.
func AttachCDP(cmd *exec.Cmd) (*Pipes, error) {
	chromeRead, daemonWrite, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create CDP input pipe: %w", err)
	}
	daemonRead, chromeWrite, err := os.Pipe()
	if err != nil {
		chromeRead.Close()
		daemonWrite.Close()
		return nil, fmt.Errorf("failed to create CDP output pipe: %w", err)
	}
	cmd.ExtraFiles = []*os.File{chromeRead, chromeWrite}
	return &Pipes{Writer: daemonWrite, Reader: daemonRead}, nil
}

// CloseChildEnds closes the child-side pipe files after a successful
// spawn; the child holds its own copies.
func CloseChildEnds(cmd *exec.Cmd) {
	for _, f := range cmd.ExtraFiles {
		f.Close()
	}
	cmd.ExtraFiles = nil
}

type cdpCommand struct {
	ID     int            `json:"id"`
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

type cdpResponse struct {
	ID     int `json:"id"`
	Result *struct {
		ID string `json:"id"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// LoadExtension sends Extensions.loadUnpacked over the CDP pipe and
// waits for the reply, skipping interleaved events. Messages on the
// pipe are JSON delimited by NUL bytes.
func (p *Pipes) LoadExtension(extensionDir string) error {
	time.Sleep(cdpStartupDelay)

	cmd := cdpCommand{
		ID:     1,
		Method: "Extensions.loadUnpacked",
		Params: map[string]any{"path": extensionDir},
	}
	msg, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	msg = append(msg, 0x00)
	if _, err := p.Writer.Write(msg); err != nil {
		return fmt.Errorf("failed to write CDP command: %w", err)
	}

	if err := p.Reader.SetReadDeadline(time.Now().Add(cdpResponseTimeout)); err != nil {
		return err
	}
	defer p.Reader.SetReadDeadline(time.Time{})

	var accumulated []byte
	buf := make([]byte, 8192)
	for {
		n, err := p.Reader.Read(buf)
		if err != nil {
			return fmt.Errorf("CDP pipe closed without response: %w", err)
		}
		accumulated = append(accumulated, buf[:n]...)

		for {
			pos := bytes.IndexByte(accumulated, 0x00)
			if pos < 0 {
				break
			}
			frame := accumulated[:pos]
			accumulated = accumulated[pos+1:]

			var resp cdpResponse
			if json.Unmarshal(frame, &resp) != nil || resp.ID != 1 {
				continue // CDP event, not our reply
			}
			if resp.Error != nil {
				return fmt.Errorf("Extensions.loadUnpacked failed: %s", resp.Error.Message)
			}
			return nil
		}
	}
}
