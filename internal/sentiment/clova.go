// Package sentiment labels diary text with one of a fixed set of emotion
// categories by calling the Clova Studio chat-completions API.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Labels is the closed set of categories the classifier may return.
var Labels = []string{"positive", "negative", "neutral", "sadness", "surprise"}

// Classifier labels a piece of text. Implementations must treat every
// failure as an error; callers decide whether a missing label is fatal.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

type ClovaClient struct {
	apiKey  string
	apiURL  string
	httpCli *http.Client
}

func NewClovaClient(apiKey, apiURL string) *ClovaClient {
	return &ClovaClient{
		apiKey:  apiKey,
		apiURL:  apiURL,
		httpCli: &http.Client{Timeout: 10 * time.Second},
	}
}

const systemPrompt = `- This is a sentence sentiment classifier.
- Answer with the emotion only, no explanation.
- Answer with exactly one of: positive, negative, neutral, sadness, surprise
Sentence: What a wonderful day
Emotion: positive
###
Sentence: This is really getting on my nerves
Emotion: negative
###
Sentence: I will send it over later
Emotion: neutral
###
Sentence: I was so sad I could not stop crying
Emotion: sadness
###
Sentence: Wow, is that even possible?
Emotion: surprise
###`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages          []chatMessage `json:"messages"`
	TopP              float64       `json:"topP"`
	TopK              int           `json:"topK"`
	MaxTokens         int           `json:"maxTokens"`
	Temperature       float64       `json:"temperature"`
	RepetitionPenalty float64       `json:"repetitionPenalty"`
	Stop              []string      `json:"stop"`
	IncludeAiFilters  bool          `json:"includeAiFilters"`
	Seed              int           `json:"seed"`
}

type chatResponse struct {
	Result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"result"`
}

// Classify posts a single chat-completion request and maps the reply onto
// the closed label set. A reply outside the set is an error.
func (c *ClovaClient) Classify(ctx context.Context, text string) (string, error) {
	body := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Sentence: %s\nEmotion:", text)},
		},
		TopP:              0.6,
		MaxTokens:         20,
		Temperature:       0.1,
		RepetitionPenalty: 1.1,
		Stop:              []string{"###"},
		IncludeAiFilters:  true,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("X-NCP-CLOVASTUDIO-REQUEST-ID", uuid.NewString())
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sentiment api returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}

	label := strings.ToLower(strings.TrimSpace(out.Result.Message.Content))
	for _, l := range Labels {
		if label == l {
			return l, nil
		}
	}
	return "", errors.New("sentiment api returned unknown label: " + label)
}
