package genApi

type Config struct {
	BaseURL     string `envconfig:"BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	ApiKey      string `envconfig:"API_KEY" required:"true"`
	ModelCheap  string `envconfig:"MODEL_CHEAP" default:"gemini-2.5-flash-image"`
	ModelStrong string `envconfig:"MODEL_STRONG" default:"gemini-3-pro-image-preview"`
	TimeoutSec  int    `envconfig:"TIMEOUT" default:"45"` // в секундах, таймаут одной генерации
}
