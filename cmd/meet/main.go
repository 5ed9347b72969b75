package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/voxmeet/voxmeet/internal/config"
	"github.com/voxmeet/voxmeet/internal/provider/rtc"
	"github.com/voxmeet/voxmeet/internal/roomsvc"
	"github.com/voxmeet/voxmeet/internal/session"
	"github.com/voxmeet/voxmeet/internal/state"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	room := pflag.String("room", "", "room to join")
	name := pflag.String("name", "", "display name")
	audio := pflag.Bool("audio", true, "publish microphone audio")
	video := pflag.Bool("video", true, "publish camera video")
	verbose := pflag.BoolP("verbose", "v", false, "verbose logging")
	pflag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if *room == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "usage: meet --room <room> --name <name>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	prov := rtc.NewConnection(rtc.DefaultWebRTCConfig(), rtc.SampleMedia{Audio: *audio, Video: *video, Screen: true})
	rooms := roomsvc.NewClient(cfg.RoomServiceURL)
	ctrl := session.New(state.NewStore(), prov, rooms, session.Hooks{})

	go printNotices(ctrl)

	if _, err := ctrl.Join(ctx, session.JoinParams{RoomName: *room, ParticipantName: *name}); err != nil {
		log.Error().Err(err).Msg("join failed")
		os.Exit(1)
	}
	fmt.Printf("joined %q as %q — /mute /cam /share /who /end /quit, anything else is chat\n", *room, *name)

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			ctrl.Leave()
			return
		case line, ok := <-lines:
			if !ok {
				ctrl.Leave()
				return
			}
			if done := runCommand(ctx, ctrl, line); done {
				return
			}
		}
	}
}

func runCommand(ctx context.Context, ctrl *session.Controller, line string) bool {
	var err error
	switch strings.TrimSpace(line) {
	case "":
	case "/quit":
		ctrl.Leave()
		return true
	case "/end":
		if err = ctrl.EndRoomForAll(ctx); err == nil {
			return true
		}
	case "/mute":
		err = ctrl.ToggleMute()
	case "/cam":
		err = ctrl.ToggleCamera()
	case "/share":
		err = ctrl.ToggleScreenShare()
	case "/who":
		printRoster(ctrl)
	default:
		err = ctrl.SendChat(line)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return false
}

func printRoster(ctrl *session.Controller) {
	snap := ctrl.Snapshot()
	for _, p := range snap.Participants {
		mic := "muted"
		if !p.AudioMuted {
			mic = "live"
		}
		tag := ""
		if p.IsLocal {
			tag = " (you)"
		}
		if p.ID == snap.ActiveSharer {
			tag += " [sharing]"
		}
		fmt.Printf("  %-20s mic:%s%s\n", p.Name, mic, tag)
	}
}

func printNotices(ctrl *session.Controller) {
	for n := range ctrl.Notices() {
		switch n.Level {
		case session.NoticeInfo:
			fmt.Println(n.Text)
		default:
			fmt.Fprintln(os.Stderr, n.Text)
		}
	}
}
