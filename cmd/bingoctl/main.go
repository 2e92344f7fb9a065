// Command bingoctl is an operator client for a bingo server.
//
//	bingoctl create --host-name Alice
//	bingoctl show K7Q2ZD
//	bingoctl host --room K7Q2ZD --name Alice --interval 2s
//	bingoctl watch --room K7Q2ZD --name Spectator
//
// "host" joins as the room's host, starts the game and draws until it
// finishes. "watch" joins as a regular player and prints every event.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(os.Stdout).Run(ctx, os.Args); err != nil {
		logrus.WithError(err).Fatal("bingoctl failed")
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "bingoctl",
		Usage:     "create, inspect, host and watch bingo rooms",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:8000",
				Usage:   "server base URL",
				Sources: cli.EnvVars("BINGO_SERVER"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create a room and print its code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host-name", Usage: "host display name", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					roomID, err := NewClient(cmd.String("server")).CreateRoom(ctx, cmd.String("host-name"))
					if err != nil {
						return err
					}
					fmt.Fprintln(out, roomID)
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "print a room's state",
				ArgsUsage: "ROOM",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("usage: bingoctl show ROOM")
					}
					state, err := NewClient(cmd.String("server")).GetRoom(ctx, cmd.Args().First())
					if err != nil {
						return err
					}
					fmt.Fprintln(out, formatEvent(event{
						Type:        state.Type,
						RoomID:      state.RoomID,
						Host:        state.Host,
						Status:      string(state.Status),
						Players:     state.Players,
						DrawHistory: state.DrawHistory,
					}))
					return nil
				},
			},
			{
				Name:  "host",
				Usage: "join as host, start the game and draw until it finishes",
				Flags: []cli.Flag{
					roomFlag(),
					nameFlag(),
					&cli.DurationFlag{Name: "interval", Value: 2 * time.Second, Usage: "time between draws"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					interval := cmd.Duration("interval")
					if interval <= 0 {
						return fmt.Errorf("interval must be positive")
					}
					conn, err := NewClient(cmd.String("server")).Join(ctx, cmd.String("room"), cmd.String("name"))
					if err != nil {
						return err
					}
					defer conn.Close()
					return hostGame(ctx, conn, interval, out)
				},
			},
			{
				Name:  "watch",
				Usage: "join a room and print its events",
				Flags: []cli.Flag{roomFlag(), nameFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					conn, err := NewClient(cmd.String("server")).Join(ctx, cmd.String("room"), cmd.String("name"))
					if err != nil {
						return err
					}
					defer conn.Close()
					return watchRoom(ctx, conn, out)
				},
			},
		},
	}
}

func roomFlag() cli.Flag {
	return &cli.StringFlag{Name: "room", Aliases: []string{"r"}, Usage: "room code", Required: true}
}

func nameFlag() cli.Flag {
	return &cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "player name", Required: true}
}
