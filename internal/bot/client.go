package bot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/conquestlab/landgrab/internal/model"
	"github.com/conquestlab/landgrab/pkg/conquest"
)

// WSEvent mirrors the server's WebSocket envelope. Data stays raw so
// callers can decode it into the type the event implies.
type WSEvent struct {
	Type   string          `json:"type"`
	GameID string          `json:"game_id"`
	Data   json.RawMessage `json:"data"`
}

// Client is an HTTP+WebSocket client for a single remote-driven seat.
type Client struct {
	name     string
	baseURL  string
	token    string
	userID   string
	wsConn   *websocket.Conn
	events   chan WSEvent
	httpC    *http.Client
	mu       sync.Mutex
	closedWS bool
}

// NewClient creates a client for one seat targeting the given server URL.
func NewClient(name, baseURL string) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		events:  make(chan WSEvent, 64),
		httpC:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the seat's player name.
func (c *Client) Name() string { return c.name }

// UserID returns the seat's user ID after login.
func (c *Client) UserID() string { return c.userID }

// Login mints a guest identity for the seat.
func (c *Client) Login() error {
	var resp struct {
		AccessToken string `json:"access_token"`
		UserID      string `json:"user_id"`
	}
	if err := c.post("/api/v1/auth/guest", map[string]string{"name": c.name}, &resp); err != nil {
		return fmt.Errorf("guest login: %w", err)
	}
	c.token = resp.AccessToken
	c.userID = resp.UserID
	log.Debug().Str("seat", c.name).Str("userId", c.userID).Msg("Seat logged in")
	return nil
}

// JoinGame creates or joins the room under the seat's name and returns
// the room id (the server generates one when gameID is empty).
func (c *Client) JoinGame(gameID string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	body := map[string]string{"id": gameID, "name": c.name}
	if err := c.post("/api/v1/games", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Setup deals the map out for starting claims.
func (c *Client) Setup(gameID string) (*model.GameDoc, error) {
	var doc model.GameDoc
	if err := c.post("/api/v1/games/"+gameID+"/setup", nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Claim grabs one starting territory for the seat. ok=false means
// another player got there first.
func (c *Client) Claim(gameID string, territoryID int) (bool, *model.GameDoc, error) {
	var resp struct {
		OK    bool           `json:"ok"`
		State *model.GameDoc `json:"state"`
	}
	body := map[string]any{"player": c.name, "territory_id": territoryID}
	if err := c.post("/api/v1/games/"+gameID+"/claim", body, &resp); err != nil {
		return false, nil, err
	}
	return resp.OK, resp.State, nil
}

// SubmitAction plays one turn for the seat.
func (c *Client) SubmitAction(gameID string, act conquest.Action) (*conquest.Outcome, *model.GameDoc, error) {
	payload := struct {
		Player string `json:"player"`
		conquest.Action
	}{Player: c.name, Action: act}

	var resp struct {
		conquest.Outcome
		State *model.GameDoc `json:"state"`
	}
	if err := c.post("/api/v1/games/"+gameID+"/actions", payload, &resp); err != nil {
		return nil, nil, err
	}
	return &resp.Outcome, resp.State, nil
}

// GetGame fetches the current game document.
func (c *Client) GetGame(gameID string) (*model.GameDoc, error) {
	var doc model.GameDoc
	if err := c.get("/api/v1/games/"+gameID, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ConnectWS opens the WebSocket, subscribed to gameID, and starts
// listening for events.
func (c *Client) ConnectWS(gameID string) error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) +
		"/ws?token=" + url.QueryEscape(c.token) + "&game=" + url.QueryEscape(gameID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	c.wsConn = conn

	go c.readWSLoop()
	return nil
}

// SubscribeGame subscribes the open connection to another game.
func (c *Client) SubscribeGame(gameID string) error {
	msg := map[string]string{"action": "subscribe", "game_id": gameID}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wsConn.WriteJSON(msg)
}

// Events returns the channel of incoming WebSocket events.
func (c *Client) Events() <-chan WSEvent { return c.events }

// CloseWS closes the WebSocket connection.
func (c *Client) CloseWS() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsConn != nil && !c.closedWS {
		c.closedWS = true
		c.wsConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.wsConn.Close()
	}
}

func (c *Client) readWSLoop() {
	defer close(c.events)
	for {
		_, msg, err := c.wsConn.ReadMessage()
		if err != nil {
			if !c.closedWS {
				log.Debug().Err(err).Str("seat", c.name).Msg("WS read error")
			}
			return
		}
		// The hub batches queued events into one frame, newline separated,
		// so a frame can hold more than one event.
		dec := json.NewDecoder(bytes.NewReader(msg))
		for {
			var event WSEvent
			if err := dec.Decode(&event); err != nil {
				break
			}
			c.events <- event
		}
	}
}

// get issues an authenticated GET and decodes the response into out.
func (c *Client) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// post issues an authenticated POST. A nil payload sends an empty
// object; a nil out discards the response body.
func (c *Client) post(path string, payload, out any) error {
	data := []byte("{}")
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpC.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
