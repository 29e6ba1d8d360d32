package genApi

import (
	"errors"
	"fmt"
)

// ErrNoImage провайдер ответил 2xx, но в ответе нет декодируемой картинки
var ErrNoImage = errors.New("generation API: no image in response")

// APIError не-2xx ответ провайдера с превью тела для диагностики
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generation API error [status=%d]: %s", e.StatusCode, e.Body)
}

// ImageRequest задание на генерацию в терминах адаптера
type ImageRequest struct {
	Model       string
	Prompt      string
	AspectRatio string
	Image       []byte // исходное изображение
	ImageType   string
	RefImage    []byte // опциональный референс
	RefType     string
}

// ImageResult декодированная картинка из ответа провайдера
type ImageResult struct {
	Data     []byte
	MimeType string
	Model    string // модель, которую провайдер указал в ответе
}

// Wire-типы generateContent API

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion,omitempty"`
}
