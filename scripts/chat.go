package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
)

type serverMessage struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	TraceID string `json:"trace_id,omitempty"`
}

func main() {
	baseURL := flag.String("url", "ws://localhost:8080/ws", "")
	account := flag.String("account", "", "10-digit account number (optional)")
	flag.Parse()

	url := *baseURL
	if *account != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "account_number=" + *account
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		fmt.Println("connect error:", err)
		os.Exit(1)
	}
	defer conn.Close()

	agentColor := color.New(color.FgCyan, color.Bold)
	userColor := color.New(color.FgGreen)
	dimColor := color.New(color.Faint)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg serverMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			agentColor.Print("teller> ")
			fmt.Println(msg.Text)
			if msg.TraceID != "" {
				dimColor.Println("  trace:", msg.TraceID)
			}
			userColor.Print("you> ")
		}
	}()

	userColor.Print("you> ")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			userColor.Print("you> ")
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}
		payload, _ := json.Marshal(map[string]string{"message": line})
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			fmt.Println("send error:", err)
			break
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	<-done
}
