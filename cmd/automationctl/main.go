package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gamehub/automation-agent/internal/client"
	"gamehub/automation-agent/internal/logger"
	"gamehub/automation-agent/internal/macrofile"
	"gamehub/automation-agent/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const usage = `usage: automationctl [-addr URL] <command> [args]

commands:
  status                           show recorder and player state
  record start|stop                arm or disarm the recorder
  play [-file F] [-loop] [-interval MS] [-hwnd H]
                                   play a macro file, or the current macro
  stop                             stop playback or the background clicker
  clicker -hwnd H [-interval MS]   start the background clicker
  windows                          list targetable windows
  cursor                           show cursor position and colour
  pick-color                       capture the trigger colour after the agent's delay
  check-color [-x X -y Y] [-color #rrggbb]
  load FILE                        make a macro file the current macro
  export FILE                      write the current macro to a file
  macros                           list saved macros
  save NAME                        save the current macro
  activate ID                      make a saved macro current
  delete ID                        delete a saved macro
  sessions [-limit N]              show recent sessions
  watch                            stream status changes
`

func main() {
	addr := flag.String("addr", "http://localhost:5000", "Agent base URL")
	timeout := flag.Duration("timeout", 15*time.Second, "Request timeout")
	verbose := flag.Bool("v", false, "Log requests")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, err := logger.New(level, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	c := client.NewAPIClient(strings.TrimRight(*addr, "/"), *timeout, log.Logger)

	if err := run(c, *addr, flag.Arg(0), flag.Args()[1:], log.Logger); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Code != "" {
			fmt.Fprintf(os.Stderr, "error (%s): %s\n", apiErr.Code, apiErr.Message)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(c *client.APIClient, addr, cmd string, args []string, log *zap.Logger) error {
	switch cmd {
	case "status":
		return printResult(c.Status())

	case "record":
		if len(args) != 1 {
			return errors.New("record needs start or stop")
		}
		switch args[0] {
		case "start":
			id, err := c.StartRecording()
			if err != nil {
				return err
			}
			fmt.Println("recording, session", id)
			return nil
		case "stop":
			macro, err := c.StopRecording()
			if err != nil {
				return err
			}
			fmt.Printf("recorded %d events\n", len(macro))
			return nil
		}
		return fmt.Errorf("unknown record action %q", args[0])

	case "play":
		fs := flag.NewFlagSet("play", flag.ExitOnError)
		file := fs.String("file", "", "Macro file; the current macro when empty")
		loop := fs.Bool("loop", false, "Repeat until stopped")
		interval := fs.Int64("interval", 0, "Fixed delay between events in ms; 0 keeps recorded pacing")
		hwnd := fs.Uint64("hwnd", 0, "Target window; 0 plays globally")
		fs.Parse(args)

		req := models.PlayMacroRequest{
			Loop:     *loop,
			Interval: *interval,
			Hwnd:     models.WindowHandle(*hwnd),
		}
		if *file != "" {
			macro, err := readMacroFile(*file)
			if err != nil {
				return err
			}
			req.Macro = macro
		}
		id, err := c.PlayMacro(req)
		if err != nil {
			return err
		}
		fmt.Println("playing, session", id)
		return nil

	case "stop":
		return c.StopPlayback()

	case "clicker":
		fs := flag.NewFlagSet("clicker", flag.ExitOnError)
		hwnd := fs.Uint64("hwnd", 0, "Target window")
		interval := fs.Duration("interval", 0, "Click interval; 0 uses the agent default")
		fs.Parse(args)
		if *hwnd == 0 {
			return errors.New("clicker needs -hwnd")
		}
		id, err := c.StartBackgroundClicker(models.WindowHandle(*hwnd), *interval)
		if err != nil {
			return err
		}
		fmt.Println("clicking, session", id)
		return nil

	case "windows":
		windows, err := c.Windows()
		if err != nil {
			return err
		}
		for _, w := range windows {
			fmt.Printf("%-12d %s\n", w.Handle, w.Title)
		}
		return nil

	case "cursor":
		return printResult(c.CursorInfo())

	case "pick-color":
		fmt.Fprintln(os.Stderr, "move the cursor over the target colour...")
		return printResult(c.PickColor())

	case "check-color":
		fs := flag.NewFlagSet("check-color", flag.ExitOnError)
		x := fs.String("x", "", "X coordinate; cursor when empty")
		y := fs.String("y", "", "Y coordinate; cursor when empty")
		color := fs.String("color", "", "Colour to compare; trigger colour when empty")
		fs.Parse(args)

		req := models.CheckColorRequest{Color: *color}
		var err error
		if req.X, err = optionalInt(*x); err != nil {
			return fmt.Errorf("invalid -x: %w", err)
		}
		if req.Y, err = optionalInt(*y); err != nil {
			return fmt.Errorf("invalid -y: %w", err)
		}
		return printResult(c.CheckColor(req))

	case "load":
		if len(args) != 1 {
			return errors.New("load needs a file")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		n, err := c.LoadMacroFile(data)
		if err != nil {
			return err
		}
		fmt.Printf("loaded %d events\n", n)
		return nil

	case "export":
		if len(args) != 1 {
			return errors.New("export needs a file")
		}
		macro, err := c.CurrentMacro()
		if err != nil {
			return err
		}
		data, err := macrofile.Encode(macro)
		if err != nil {
			return err
		}
		return os.WriteFile(args[0], data, 0644)

	case "macros":
		macros, err := c.ListMacros()
		if err != nil {
			return err
		}
		for _, m := range macros {
			fmt.Printf("%s  %-24s %4d events  %s\n", m.ID, m.Name, m.EventCount, m.UpdatedAt.Local().Format(time.DateTime))
		}
		return nil

	case "save":
		if len(args) != 1 {
			return errors.New("save needs a name")
		}
		return printResult(c.SaveMacro(models.SaveMacroRequest{Name: args[0]}))

	case "activate":
		if len(args) != 1 {
			return errors.New("activate needs a macro id")
		}
		return c.ActivateMacro(args[0])

	case "delete":
		if len(args) != 1 {
			return errors.New("delete needs a macro id")
		}
		return c.DeleteMacro(args[0])

	case "sessions":
		fs := flag.NewFlagSet("sessions", flag.ExitOnError)
		limit := fs.Int("limit", 0, "Maximum sessions to show")
		fs.Parse(args)
		return printResult(c.Sessions(*limit))

	case "watch":
		return watch(addr, log)
	}

	return fmt.Errorf("unknown command %q", cmd)
}

func readMacroFile(path string) (models.Macro, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return macrofile.Parse(data)
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func printResult[T any](v T, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// watch prints every status snapshot pushed over /ws until interrupted
func watch(addr string, log *zap.Logger) error {
	u, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to status stream: %w", err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-interrupt
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("Status stream ended", zap.Error(err))
			return nil
		}

		var st models.AutomationStatus
		if err := json.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("bad status message: %w", err)
		}
		fmt.Printf("%s recording=%t playing=%t mode=%q macro_length=%d",
			time.Now().Format(time.TimeOnly), st.Recording, st.Playing, st.Mode, st.MacroLength)
		if st.LastError != "" {
			fmt.Printf(" last_error=%q", st.LastError)
		}
		fmt.Println()
	}
}
