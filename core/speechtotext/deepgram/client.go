package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/rest/interfaces"
	"github.com/koscakluka/aria-core/core/audio"
	"github.com/koscakluka/aria-core/core/speechtotext"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const listenURL = "https://api.deepgram.com/v1/listen"

// Client transcribes one audio payload per call through the Deepgram
// prerecorded listen API. It satisfies the orchestration core's
// SpeechToText capability.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// NewClient creates a prerecorded transcription client. The API key is
// taken from the DEEPGRAM_API_KEY environment variable unless supplied
// with WithAPIKey.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		model:    "nova-3",
		endpoint: listenURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
		if !ok {
			return nil, fmt.Errorf("deepgram api key not found")
		}
		c.apiKey = apiKey
	}

	return c, nil
}

// Transcribe sends the audio payload to the listen endpoint and normalizes
// the first alternative of the first channel into a final transcript.
func (c *Client) Transcribe(ctx context.Context, payload []byte, opts ...speechtotext.TranscriptionOption) (*speechtotext.Transcript, error) {
	options := &speechtotext.TranscriptionOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(options)
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return nil, fmt.Errorf("invalid encoding: %w", err)
	}

	listenURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}
	queryParams := listenURL.Query()
	queryParams.Set("encoding", encoding.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", c.model)
	queryParams.Set("smart_format", "true")
	if options.Language != "" {
		queryParams.Set("language", options.Language)
	} else {
		queryParams.Set("detect_language", "true")
	}
	if len(options.Keywords) > 0 {
		queryParams.Set("keywords", strings.Join(options.Keywords, ","))
	}
	listenURL.RawQuery = queryParams.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, listenURL.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/"+encoding.Format.Name())
	req.Header.Set("Authorization", "Token "+c.apiKey)

	capturedAt := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-OK HTTP status %s: %s", resp.Status, body)
	}

	var parsed api.PreRecordedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %w", err)
	}

	return toTranscript(&parsed, capturedAt)
}

func toTranscript(response *api.PreRecordedResponse, capturedAt time.Time) (*speechtotext.Transcript, error) {
	if response.Results == nil || len(response.Results.Channels) == 0 ||
		len(response.Results.Channels[0].Alternatives) == 0 {
		return nil, fmt.Errorf("no transcription alternatives in response")
	}

	channel := response.Results.Channels[0]
	alternative := channel.Alternatives[0]

	transcript := &speechtotext.Transcript{
		Text:       strings.TrimSpace(alternative.Transcript),
		Confidence: alternative.Confidence,
		IsFinal:    true,
		CapturedAt: capturedAt,
	}
	for _, word := range alternative.Words {
		transcript.Words = append(transcript.Words, speechtotext.WordInfo{
			Word:       word.Word,
			Start:      word.Start,
			End:        word.End,
			Confidence: word.Confidence,
		})
	}
	if len(channel.DetectedLanguage) > 0 {
		transcript.Language = channel.DetectedLanguage
	}
	if response.Metadata != nil {
		transcript.Duration = response.Metadata.Duration
	}

	return transcript, nil
}
