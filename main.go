package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wfunc/tetris/config"
	"github.com/wfunc/tetris/game"
	"github.com/wfunc/tetris/logger"
	"github.com/wfunc/tetris/monitor"
	"github.com/wfunc/tetris/persistence"
	"github.com/wfunc/tetris/piece"
	"github.com/wfunc/tetris/services"
	"github.com/wfunc/tetris/session"
	"github.com/wfunc/tetris/timer"
)

// keys maps what the player types to game commands.
var keys = map[string]game.Command{
	"a":      game.CmdMoveLeft,
	"left":   game.CmdMoveLeft,
	"d":      game.CmdMoveRight,
	"right":  game.CmdMoveRight,
	"s":      game.CmdMoveDown,
	"down":   game.CmdMoveDown,
	"w":      game.CmdRotateClockwise,
	"rotate": game.CmdRotateClockwise,
	"q":      game.CmdRotateAnticlockwise,
	"ccw":    game.CmdRotateAnticlockwise,
	"p":      game.CmdPause,
	"pause":  game.CmdPause,
	"start":  game.CmdStart,
}

func main() {
	// Initialize logger
	logger.Init("info")
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Log.Level)

	// Initialize Database
	db, err := openDatabase(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to open %s database: %v", cfg.Database.Driver, err)
	}
	defer db.Close()
	logger.Log.Infof("Using %s record store", cfg.Database.Driver)
	records := services.NewRecordService(db)

	mon := monitor.NewMonitor(cfg.Monitor.Namespace, nil)
	if cfg.Monitor.Enabled {
		srv := mon.StartServer(cfg.Monitor.Address)
		defer monitor.Shutdown(srv, 2*time.Second)
	}

	timers := timer.NewTimerManager(timer.DefaultResolution)
	defer timers.Stop()

	manager := session.NewManager(session.Options{
		Width:           cfg.Game.Width,
		Height:          cfg.Game.Height,
		QueueSize:       cfg.Game.QueueSize,
		GravityInterval: cfg.Game.GravityInterval,
		Seed:            cfg.Game.Seed,
		Timers:          timers,
		Recorder:        records,
		Metrics:         mon,
		Observers:       []game.Observer{mon},
	})
	defer manager.CloseAll()

	sess := manager.Create(cfg.Player.Name)
	logger.Log.Infof("Session %s for %s (seed %d)", sess.ID, sess.Player, sess.Seed())

	play(sess, records, os.Stdin, os.Stdout)
}

func openDatabase(cfg config.DatabaseConfig) (persistence.Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "gorm":
		return persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "sql":
		return persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		return persistence.NewMemory(), nil
	}
}

// play reads one command per line until the game ends, input closes or the
// process is interrupted.
func play(sess *session.Session, records *services.RecordService, in io.Reader, out io.Writer) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	fmt.Fprintln(out, "commands: start, a/d/s (move), w/q (rotate), p (pause), show, top, quit")
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			switch line {
			case "":
				continue
			case "quit", "exit":
				return
			case "show":
				render(out, sess.Snapshot())
				continue
			case "top":
				printLeaderboard(out, records)
				continue
			}
			cmd, ok := keys[line]
			if !ok {
				cmd = game.Command(line)
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			err := sess.Submit(ctx, cmd)
			cancel()
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			render(out, sess.Snapshot())
		case <-sess.Done():
			render(out, sess.Snapshot())
			fmt.Fprintf(out, "game over, score %d\n", sess.Snapshot().Score)
			printLeaderboard(out, records)
			return
		case <-interrupt:
			return
		}
	}
}

// render draws the field top row first, hidden rows above the dashed line,
// with the active piece as '#', its ghost as '.', and locked cells by type.
func render(w io.Writer, snap game.Snapshot) {
	grid := make([][]byte, len(snap.Cells))
	for r := range grid {
		grid[r] = make([]byte, snap.Width)
		for c := range grid[r] {
			grid[r][c] = ' '
			if cell := snap.Cells[r][c]; cell.Occupied {
				grid[r][c] = cell.Type.String()[0]
			}
		}
	}
	if p := snap.Piece; p != nil {
		overlay(grid, p.Shape, p.GhostRow, p.Column, '.')
		overlay(grid, p.Shape, p.Row, p.Column, '#')
	}

	var b strings.Builder
	for r := len(grid) - 1; r >= 0; r-- {
		b.WriteByte('|')
		b.Write(grid[r])
		b.WriteString("|\n")
		if r == snap.Height {
			b.WriteString("|" + strings.Repeat("-", snap.Width) + "|\n")
		}
	}
	b.WriteString("+" + strings.Repeat("-", snap.Width) + "+\n")
	fmt.Fprint(w, b.String())
	fmt.Fprintf(w, "score %d  locked %d  next %v  %s\n", snap.Score, snap.Locked, snap.Next, snap.Phase)
}

func overlay(grid [][]byte, shape piece.Shape, row, col int, mark byte) {
	for i, cells := range shape {
		for j, cell := range cells {
			r, c := row+i, col+j
			if !cell.Occupied || r < 0 || r >= len(grid) || c < 0 || c >= len(grid[r]) {
				continue
			}
			grid[r][c] = mark
		}
	}
}

func printLeaderboard(w io.Writer, records *services.RecordService) {
	top, err := records.Leaderboard(services.DefaultLeaderboardSize)
	if err != nil {
		fmt.Fprintf(w, "leaderboard: %v\n", err)
		return
	}
	for i, r := range top {
		fmt.Fprintf(w, "%2d. %-12s %5d  %s\n", i+1, r.Player, r.Score, r.Duration().Round(time.Second))
	}
}
