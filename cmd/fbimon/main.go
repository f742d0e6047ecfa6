// Command fbimon is a terminal status monitor: it constructs and starts
// its own fbi.Core and prints that core's five pixel counters, refreshed
// on an interval and cut to the attached terminal's width. It does not
// show FIFO occupancy or worker parity.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/zaynotley/sst1fbi"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	core := fbi.New(fbi.Config{
		FramebufferBytes: 2 << 20,
		AuxBufferBytes:   2 << 20,
		TextureMemBytes:  2 << 20,
		NumWorkers:       2,
		ScreenWidth:      640,
		ScreenHeight:     480,
		RowBytes:         640 * 2,
	})
	core.SetLogger(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	core.Start(ctx)
	defer core.Close()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
		render(width, core)
	}
}

func render(width int, core *fbi.Core) {
	line := fmt.Sprintf("pixelsIn=%d pixelsOut=%d chromaFail=%d zFail=%d aFail=%d",
		core.ReadReg(fbi.RegFbiPixelsIn),
		core.ReadReg(fbi.RegFbiPixelsOut),
		core.ReadReg(fbi.RegFbiChromaFail),
		core.ReadReg(fbi.RegFbiZFuncFail),
		core.ReadReg(fbi.RegFbiAFuncFail),
	)
	if len(line) > width {
		line = line[:width]
	}
	fmt.Println(line)
}
