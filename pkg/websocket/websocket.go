package websocketPkg

import (
	"VoxMail/internal/entity"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var ErrEncoderNotConfigured = errors.New("FACE_ENCODER_WS_URL not set")

// IFaceEncoder sends image frames to the face encoding service and returns
// the encodings it finds.
type IFaceEncoder interface {
	Encode(frame []byte) (*entity.FaceEncodingResult, error)
	IsConnected() bool
	Reconnect() error
	Close()
}

type faceEncoderClient struct {
	url          string
	conn         *websocket.Conn
	mu           sync.Mutex
	log          *logrus.Logger
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewFaceEncoderClient(log *logrus.Logger) IFaceEncoder {
	client := &faceEncoderClient{
		url:          os.Getenv("FACE_ENCODER_WS_URL"),
		log:          log,
		pingInterval: 30 * time.Second,
		readTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
	}

	go client.connectInBackground()

	return client
}

func (c *faceEncoderClient) connectInBackground() {
	if err := c.Reconnect(); err != nil {
		c.log.WithError(err).Warn("Initial connection to face encoder failed, will retry on demand")
		return
	}
	c.log.Info("Successfully connected to face encoder")
}

func (c *faceEncoderClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *faceEncoderClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	if c.url == "" {
		return ErrEncoderNotConfigured
	}

	c.log.WithField("url", c.url).Info("Connecting to face encoder")

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout)); err != nil {
			c.log.WithError(err).Debug("Error sending pong")
		}
		return nil
	})

	c.conn = conn
	go c.keepAlive(conn)

	return nil
}

func (c *faceEncoderClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *faceEncoderClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}

		if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout)); err != nil {
			c.log.WithError(err).Warn("Ping to face encoder failed, marking connection as dead")
			c.conn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
}

func (c *faceEncoderClient) getConnection() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, errors.New("not connected to face encoder")
	}
	return c.conn, nil
}

// Encode sends one binary frame and waits for the matching JSON reply.
// Frames are serialised on the single connection.
func (c *faceEncoderClient) Encode(frame []byte) (*entity.FaceEncodingResult, error) {
	conn, err := c.getConnection()
	if err != nil {
		if err := c.Reconnect(); err != nil {
			return nil, fmt.Errorf("cannot connect to face encoder: %w", err)
		}
		conn, err = c.getConnection()
		if err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return nil, err
	}

	c.log.WithField("bytes", len(frame)).Debug("Sending frame to face encoder")
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.drop(conn)
		return nil, fmt.Errorf("error sending face frame: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return nil, err
	}

	_, message, err := conn.ReadMessage()
	if err != nil {
		c.drop(conn)
		return nil, fmt.Errorf("error reading face encoding: %w", err)
	}

	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})

	var result entity.FaceEncodingResult
	if err := jsoniter.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling face encoding: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("face encoder: %s", result.Error)
	}

	c.log.WithFields(logrus.Fields{
		"status": result.Status,
		"faces":  result.Faces,
	}).Debug("Face encoding received")

	return &result, nil
}

// drop must be called with c.mu held.
func (c *faceEncoderClient) drop(conn *websocket.Conn) {
	if c.conn == conn {
		c.conn = nil
	}
	conn.Close()
}
