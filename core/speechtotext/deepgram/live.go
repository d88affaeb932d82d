package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/aria-core/core/audio"
	"github.com/koscakluka/aria-core/core/speechtotext"
)

// LiveCallbacks receive live transcription results. Unset callbacks are
// skipped; interim callbacks also disable interim results on the wire when
// unset.
type LiveCallbacks struct {
	// OnInterimTranscript receives mutable, non-final transcript
	// snapshots.
	OnInterimTranscript func(transcript string)
	// OnTranscript receives the final transcript for each utterance.
	OnTranscript func(transcript speechtotext.Transcript)
	// OnSpeechStarted and OnSpeechEnded report voice activity boundaries.
	OnSpeechStarted func()
	OnSpeechEnded   func()
}

// LiveClient streams audio to the Deepgram live listen API over a
// websocket and surfaces utterance-level transcripts through callbacks.
// The orchestration core's required path is the one-shot Client; this is
// the streaming form for callers that feed audio continuously.
type LiveClient struct {
	connMu sync.Mutex
	conn   *websocket.Conn

	lastMsgTs time.Time

	accumulatedTranscript string
	unendedSegment        bool
	utteranceStart        time.Time
}

// Start opens the websocket and begins processing messages until ctx is
// cancelled or the stream is closed.
func (s *LiveClient) Start(ctx context.Context, callbacks LiveCallbacks, opts ...speechtotext.TranscriptionOption) error {
	options := &speechtotext.TranscriptionOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(options)
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := connectWebsocket(connectionOptions{
		sampleRate:    encoding.SampleRate,
		encoding:      encoding.Format.Name(),
		language:      options.Language,
		endpointingMs: options.EndpointingMs,

		detectSpeechStart: callbacks.OnSpeechStarted != nil,
		enhanceSpeechEndingDetection: callbacks.OnTranscript != nil ||
			callbacks.OnSpeechEnded != nil,
		interimResults: callbacks.OnInterimTranscript != nil,
	})
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	s.conn = conn
	go s.readAndProcessMessages(ctx, conn, callbacks)

	return nil
}

type connectionOptions struct {
	sampleRate    int
	encoding      string
	language      string
	endpointingMs int

	detectSpeechStart            bool
	enhanceSpeechEndingDetection bool
	interimResults               bool
}

func connectWebsocket(options connectionOptions) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	listenUrl, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	queryParams := listenUrl.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", "nova-3")
	if options.language != "" {
		queryParams.Set("language", options.language)
	} else {
		queryParams.Set("language", "en-US")
	}
	queryParams.Set("smart_format", "true")
	if options.enhanceSpeechEndingDetection {
		queryParams.Set("utterance_end_ms", "1000")
		queryParams.Set("interim_results", "true")
	} else if options.interimResults {
		queryParams.Set("interim_results", "true")
	}
	if options.endpointingMs > 0 {
		queryParams.Set("endpointing", strconv.Itoa(options.endpointingMs))
	} else {
		queryParams.Set("endpointing", "300")
	}
	if options.detectSpeechStart || options.enhanceSpeechEndingDetection {
		queryParams.Set("vad_events", "true")
	}

	listenUrl.RawQuery = queryParams.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(listenUrl.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, err
}

// SendAudio forwards a raw audio frame into the live stream.
func (s *LiveClient) SendAudio(payload []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("live stream not started")
	}

	s.lastMsgTs = time.Now()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

// CloseStream tells the backend to flush and finalize the stream.
func (s *LiveClient) CloseStream() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn != nil {
		if err := s.conn.WriteJSON(struct {
			Type string `json:"type"`
		}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
			return fmt.Errorf("failed to close deepgram stream through websocket: %w", err)
		}
	}
	return nil
}

func (s *LiveClient) sendKeepAlive() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return
	}
	if err := s.conn.WriteJSON(
		struct {
			Type string `json:"type"`
		}{
			Type: "KeepAlive",
		}); err != nil {
		log.Println("Failed to write to deepgram client", "error", err)
	}
}

func (s *LiveClient) readAndProcessMessages(ctx context.Context, conn *websocket.Conn, callbacks LiveCallbacks) {
	keepAliveCtx, keepAliveCancel := context.WithCancel(ctx)
	defer keepAliveCancel()

	go s.keepAlive(keepAliveCtx)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" {
				log.Println("Failed to read deepgram websocket message", "error", err)
			}

			s.connMu.Lock()
			s.conn = nil
			s.connMu.Unlock()
			conn.Close()
			return
		}
		if msgType != websocket.BinaryMessage {
			s.processMessage(msg, callbacks)
		}
	}
}

func (s *LiveClient) processMessage(msg []byte, callbacks LiveCallbacks) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	err := json.Unmarshal(msg, &parsedMsg)
	if err != nil {
		log.Println("Failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram message", err)
			return
		}
		if msgResp.IsFinal {
			if len(msgResp.Channel.Alternatives) > 0 {
				segment := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
				if len(segment) > 0 {
					if s.accumulatedTranscript == "" {
						s.utteranceStart = time.Now()
					}
					s.accumulatedTranscript = strings.TrimSpace(s.accumulatedTranscript + " " + segment)
				}
			}
			if msgResp.SpeechFinal {
				s.onSpeechEnded(callbacks)
			}
		}
		if !msgResp.IsFinal && callbacks.OnInterimTranscript != nil {
			if len(msgResp.Channel.Alternatives) > 0 {
				segment := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
				if len(segment) > 0 {
					callbacks.OnInterimTranscript(strings.TrimSpace(s.accumulatedTranscript + " " + segment))
				}
			}
		}

	case api.TypeUtteranceEndResponse:
		var msgResp api.UtteranceEndResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram message", err)
			return
		}

		if s.unendedSegment {
			s.onSpeechEnded(callbacks)
		}
	case api.TypeSpeechStartedResponse:
		var msgResp api.SpeechStartedResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram message", err)
			return
		}

		s.unendedSegment = true
		if callbacks.OnSpeechStarted != nil {
			callbacks.OnSpeechStarted()
		}
	}
}

func (s *LiveClient) onSpeechEnded(callbacks LiveCallbacks) {
	s.unendedSegment = false
	if callbacks.OnTranscript != nil {
		fullTranscript := strings.TrimSpace(s.accumulatedTranscript)
		s.accumulatedTranscript = ""
		if len(fullTranscript) > 0 {
			transcript := speechtotext.Transcript{
				Text:       fullTranscript,
				IsFinal:    true,
				CapturedAt: s.utteranceStart,
			}
			if !s.utteranceStart.IsZero() {
				transcript.Duration = time.Since(s.utteranceStart).Seconds()
			}
			callbacks.OnTranscript(transcript)
		}
	}
	if callbacks.OnSpeechEnded != nil {
		callbacks.OnSpeechEnded()
	}
}

func (s *LiveClient) keepAlive(ctx context.Context) {
	const keepAliveInterval = 5 * time.Second
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.connMu.Lock()
			idle := time.Since(s.lastMsgTs) >= keepAliveInterval
			connected := s.conn != nil
			s.connMu.Unlock()

			if connected && idle {
				s.sendKeepAlive()
			}
		}
	}
}
