package notify

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"
)

// startFakeSMTP accepts one session and hands the DATA payload to the
// returned channel.
func startFakeSMTP(t *testing.T, rejectAuth bool) (string, int, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	data := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		tp.PrintfLine("220 localhost ESMTP fake")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
			switch verb {
			case "EHLO":
				tp.PrintfLine("250-localhost")
				tp.PrintfLine("250 AUTH PLAIN")
			case "HELO", "MAIL", "RCPT", "RSET", "NOOP":
				tp.PrintfLine("250 OK")
			case "AUTH":
				if rejectAuth {
					tp.PrintfLine("535 5.7.8 Username and Password not accepted")
				} else {
					tp.PrintfLine("235 2.7.0 Accepted")
				}
			case "DATA":
				tp.PrintfLine("354 Go ahead")
				lines, err := tp.ReadDotLines()
				if err != nil {
					return
				}
				data <- strings.Join(lines, "\n")
				tp.PrintfLine("250 Queued")
			case "QUIT":
				tp.PrintfLine("221 Bye")
				return
			default:
				tp.PrintfLine("502 Unrecognised command")
			}
		}
	}()
	return "127.0.0.1", ln.Addr().(*net.TCPAddr).Port, data
}

func TestSMTPDeliver(t *testing.T) {
	host, port, data := startFakeSMTP(t, false)
	n := NewSMTP(host, port, testComposer())

	err := n.Deliver(context.Background(), testDocument(), testRecord(), Credential{Secret: "app-password"})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	select {
	case msg := <-data:
		if !strings.Contains(msg, "From: hr@acme.example") {
			t.Fatalf("message should come from the submitter:\n%s", msg)
		}
		if !strings.Contains(msg, "Acme_Co_QA_Lead.docx") {
			t.Fatal("attachment missing")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestSMTPAuthenticationRejected(t *testing.T) {
	host, port, _ := startFakeSMTP(t, true)
	n := NewSMTP(host, port, testComposer())

	err := n.Deliver(context.Background(), testDocument(), testRecord(), Credential{Secret: "wrong"})
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestSMTPRequiresSecret(t *testing.T) {
	n := NewSMTP("127.0.0.1", 1, testComposer())
	err := n.Deliver(context.Background(), testDocument(), testRecord(), Credential{})
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}
