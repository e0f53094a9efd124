// Command feedwatch logs in and prints the live suggestion event feed.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beatbox/internal/notifications"

	"github.com/gorilla/websocket"
)

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	email := flag.String("email", "", "Account email (ignored when -token is set)")
	password := flag.String("password", "", "Account password")
	token := flag.String("token", os.Getenv("BEATBOX_TOKEN"), "Bearer token")
	retry := flag.Duration("retry", 3*time.Second, "Delay before reconnecting; 0 disables reconnects")
	flag.Parse()

	if *token == "" {
		t, err := login(*host, *email, *password)
		if err != nil {
			log.Fatalf("login failed: %v", err)
		}
		*token = t
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	stop := make(chan struct{})
	go func() {
		<-interrupt
		close(stop)
	}()

	for {
		err := watch(*host, *token, stop)
		select {
		case <-stop:
			return
		default:
		}
		if *retry <= 0 {
			if err != nil {
				log.Fatalf("feed closed: %v", err)
			}
			return
		}
		log.Printf("feed closed (%v), reconnecting in %s", err, *retry)
		select {
		case <-stop:
			return
		case <-time.After(*retry):
		}
	}
}

func login(host, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})

	resp, err := http.Post(fmt.Sprintf("http://%s/api/auth/login", host), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

// watch prints events until the connection drops or stop is closed.
func watch(host, token string, stop <-chan struct{}) error {
	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws/"}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	c, resp, err := websocket.DefaultDialer.Dial(u.String(), header)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	log.Printf("connected to %s", u.String())

	done := make(chan error, 1)
	go func() {
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			printEvent(msg)
		}
	}()

	select {
	case <-stop:
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return nil
	case err := <-done:
		return err
	}
}

func printEvent(raw []byte) {
	var ev notifications.Event
	if err := json.Unmarshal(raw, &ev); err != nil || ev.Type == "" {
		log.Printf("message: %s", raw)
		return
	}
	likes := "-"
	if ev.Likes != nil {
		likes = fmt.Sprint(*ev.Likes)
	}
	log.Printf("%-20s suggestion=%d actor=%d likes=%s at=%s",
		ev.Type, ev.SuggestionID, ev.ActorID, likes, ev.At.Format(time.RFC3339))
}
