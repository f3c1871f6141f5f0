package services

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

func TestBuildMessageStripsHeaderBreaks(t *testing.T) {
	msg := buildMessage("noreply@uni.edu", "a@b.com\r\nBcc: victim@x.com", "Hi", "<p>body</p>")
	if strings.Contains(msg, "\r\nBcc:") {
		t.Fatalf("header injection not stripped: %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\n<p>body</p>") {
		t.Fatalf("body must follow a blank line: %q", msg)
	}
	if !strings.Contains(msg, "Content-Type: text/html") {
		t.Fatalf("expected html content type")
	}
}

// fakeSMTP accepts one session and returns the DATA payload on the channel.
func fakeSMTP(t *testing.T) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
		reply := func(s string) {
			rw.WriteString(s + "\r\n")
			rw.Flush()
		}

		reply("220 localhost ESMTP")
		var data strings.Builder
		inData := false
		for {
			line, err := rw.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					out <- data.String()
					reply("250 OK")
					continue
				}
				data.WriteString(line)
				continue
			}
			switch cmd := strings.ToUpper(strings.TrimSpace(line)); {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 localhost")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
				reply("250 OK")
			case cmd == "DATA":
				inData = true
				reply("354 go ahead")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("502 not implemented")
			}
		}
	}()
	return ln.Addr().String(), out
}

func TestSMTPSenderDelivers(t *testing.T) {
	addr, out := fakeSMTP(t)
	host, port, _ := net.SplitHostPort(addr)

	s := &SMTPSender{Host: host, Port: port, From: "noreply@uni.edu"}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Send(ctx, "student@uni.edu", resetEmailSubject, "<p>hello</p>"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case data := <-out:
		if !strings.Contains(data, "To: student@uni.edu") || !strings.Contains(data, "<p>hello</p>") {
			t.Fatalf("unexpected message %q", data)
		}
	case <-time.After(time.Second):
		t.Fatalf("server did not receive a message")
	}
}

func TestSMTPSenderHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &SMTPSender{Host: "127.0.0.1", Port: "1", From: "noreply@uni.edu"}
	if err := s.Send(ctx, "a@b.com", "s", "b"); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
