package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/nudge-app/nudged/internal/daemon"
	"github.com/nudge-app/nudged/internal/session"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	req, err := buildRequest(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		printUsage()
		os.Exit(1)
	}

	resp, err := roundTrip(session.ControlPath(sessionName), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot reach daemon for session %q: %v\n", sessionName, err)
		os.Exit(1)
	}

	if *jsonFlag {
		outputJSON(resp)
	} else if resp.OK {
		if resp.AlertID != "" {
			fmt.Printf("sent (alert %s)\n", resp.AlertID)
		} else {
			fmt.Println("ok")
		}
	}
	if !resp.OK {
		fmt.Fprintf(os.Stderr, "error: %s\n", resp.Error)
		os.Exit(1)
	}
}

func buildRequest(args []string) (daemon.Request, error) {
	switch args[0] {
	case "send":
		if len(args) < 3 {
			return daemon.Request{}, fmt.Errorf("usage: nudgectl send <friend> <message>")
		}
		return daemon.Request{Op: daemon.OpSend, Friend: args[1], Message: args[2]}, nil
	case "reply":
		if len(args) < 4 {
			return daemon.Request{}, fmt.Errorf("usage: nudgectl reply <friend> <alert-id> <message>")
		}
		return daemon.Request{Op: daemon.OpReply, Friend: args[1], AlertID: args[2], Message: args[3]}, nil
	case "silence":
		if len(args) < 3 {
			return daemon.Request{}, fmt.Errorf("usage: nudgectl silence <friend> <alert-id>")
		}
		return daemon.Request{Op: daemon.OpSilence, Friend: args[1], AlertID: args[2]}, nil
	case "read":
		if len(args) < 3 {
			return daemon.Request{}, fmt.Errorf("usage: nudgectl read <friend> <alert-id>")
		}
		return daemon.Request{Op: daemon.OpMarkRead, Friend: args[1], AlertID: args[2]}, nil
	case "accept":
		if len(args) < 2 {
			return daemon.Request{}, fmt.Errorf("usage: nudgectl accept <friend>")
		}
		return daemon.Request{Op: daemon.OpAcceptFriend, Friend: args[1]}, nil
	default:
		return daemon.Request{}, fmt.Errorf("unknown command: %s", args[0])
	}
}

func roundTrip(path string, req daemon.Request) (daemon.Response, error) {
	conn, err := net.DialTimeout("unix", path, 5*time.Second)
	if err != nil {
		return daemon.Response{}, err
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(30 * time.Second))

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return daemon.Response{}, err
	}
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return daemon.Response{}, err
	}
	var resp daemon.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return daemon.Response{}, err
	}
	return resp, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: nudgectl [--session <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  send <friend> <message>             Send an attention alert")
	fmt.Fprintln(os.Stderr, "  reply <friend> <alert-id> <message> Reply to an alert")
	fmt.Fprintln(os.Stderr, "  silence <friend> <alert-id>         Quiet a ringing alert")
	fmt.Fprintln(os.Stderr, "  read <friend> <alert-id>            Mark an alert as read")
	fmt.Fprintln(os.Stderr, "  accept <friend>                     Accept a friend request")
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
