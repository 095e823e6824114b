package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"kiosk-assistant/internal/audio"
	"kiosk-assistant/internal/kiosk"
	"kiosk-assistant/internal/session"
	"kiosk-assistant/internal/ui"
)

var autoOrder bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a kiosk session",
	Long: `Start a kiosk session and wait for a phone to pair with it.

Once paired, each line read from stdin is one of:
  <path>   a recorded utterance to send to the assistant
  cart     show the cart
  order    place the order
  reset    discard everything and start a new session
  quit     exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, log, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := a.StartBackground(); err != nil {
			log.WithError(err).Warn("background jobs not started")
		}

		r := &runner{k: a.Kiosk, in: bufio.NewScanner(os.Stdin)}
		if _, err := a.Kiosk.Start(ctx); err != nil {
			ui.PrintErrorBox("Failed to create session", err.Error())
			return err
		}
		return r.loop(ctx)
	},
}

func init() {
	runCmd.Flags().BoolVar(&autoOrder, "auto-order", true, "place the order as soon as the assistant finalizes it")
	rootCmd.AddCommand(runCmd)
}

type runner struct {
	k  *kiosk.Context
	in *bufio.Scanner
}

func (r *runner) loop(ctx context.Context) error {
	if err := r.pair(ctx); err != nil {
		return err
	}
	for {
		fmt.Print("> ")
		line, err := r.readLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		switch strings.ToLower(line) {
		case "":
		case "quit", "exit":
			return nil
		case "cart":
			fmt.Println(ui.Cart(r.k.Snapshot().Cart))
		case "order":
			r.placeOrder(ctx)
		case "reset":
			if _, err := r.k.Reset(ctx); err != nil {
				ui.PrintErrorBox("Failed to create session", err.Error())
				continue
			}
			if err := r.pair(ctx); err != nil {
				return err
			}
		default:
			r.utter(ctx, line)
		}
	}
}

// pair shows the session box and blocks until a phone connects.
func (r *runner) pair(ctx context.Context) error {
	for {
		v := r.k.Snapshot()
		fmt.Println(ui.SessionBox(v.SessionID))
		_, err := r.k.WaitPaired(ctx)
		switch {
		case err == nil:
			ui.PrintBold("%s", r.k.Snapshot().Welcome())
			ui.PrintInfo("Send a recorded clip path, or 'order', 'cart', 'reset', 'quit'")
			return nil
		case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, kiosk.ErrNotPaired), kiosk.IsStale(err):
			ui.PrintWarning("Session expired, creating a new one")
			if _, err := r.k.Reset(ctx); err != nil {
				ui.PrintErrorBox("Failed to create session", err.Error())
				return err
			}
		default:
			return err
		}
	}
}

func (r *runner) utter(ctx context.Context, path string) {
	clip, err := audio.FileSource{Path: path}.Record(ctx)
	if err != nil {
		if errors.Is(err, audio.ErrPermissionDenied) {
			ui.PrintError("Cannot read %s: permission denied", path)
		} else {
			ui.PrintError("Cannot read %s: %v", path, err)
		}
		return
	}

	ui.PrintInfo("Assistant is typing...")
	up, err := r.k.SubmitUtterance(ctx, clip)
	if err != nil {
		if kiosk.IsStale(err) {
			ui.PrintInfo("Session was reset, answer dropped")
			return
		}
		ui.PrintError("Failed to upload audio: %v", err)
		return
	}
	fmt.Print(ui.Transcript(up.Turns))
	if up.Added {
		fmt.Println(ui.Cart(r.k.Snapshot().Cart))
	}
	if up.State == kiosk.ReadyToFinalize {
		if autoOrder {
			r.placeOrder(ctx)
			return
		}
	}
	fmt.Println(ui.Status(r.k.Snapshot()))
}

func (r *runner) placeOrder(ctx context.Context) {
	res, err := r.k.PlaceOrder(ctx)
	if err != nil {
		ui.PrintError("Error placing order: %v", err)
		return
	}
	fmt.Println(ui.Confirmation(res))
	ui.PrintInfo("Type 'reset' to start a new order")
}

// readLine returns the next stdin line or ctx's error once it is cancelled.
func (r *runner) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		if r.in.Scan() {
			ch <- result{line: strings.TrimSpace(r.in.Text())}
			return
		}
		err := r.in.Err()
		if err == nil {
			err = io.EOF
		}
		ch <- result{err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.line, res.err
	}
}
