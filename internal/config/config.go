package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string
	Production  bool
	LogFile     string

	GeminiAPIKey  string
	GeminiModelID string

	StoreBaseURL string
	StoreToken   string

	DeepgramAPIKey string
	DeepgramVoice  string

	RecognizerURL string
	RecognizerKey string

	JWTSecret string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set - question and feedback generation will not work")
	}
	geminiModel := os.Getenv("GEMINI_MODEL_ID")
	if geminiModel == "" {
		geminiModel = "gemini-1.5-flash-latest"
	}

	storeURL := os.Getenv("STORE_BASE_URL")
	if storeURL == "" {
		log.Println("Warning: STORE_BASE_URL not set - transcripts will not be persisted")
	}

	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	if deepgramKey == "" {
		log.Println("Warning: DEEPGRAM_API_KEY not set - spoken questions are disabled")
	}

	recognizerURL := os.Getenv("RECOGNIZER_WS_URL")
	recognizerKey := os.Getenv("RECOGNIZER_API_KEY")
	if recognizerURL == "" || recognizerKey == "" {
		log.Println("Warning: recognizer not configured - voice answers are disabled")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Println("Warning: JWT_SECRET not set - all API calls will be rejected")
	}

	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "logs/interviewer.log"
	}

	log.Printf("config: HTTP_ADDRESS=%s", addr)
	return Config{
		HTTPAddress:    addr,
		Production:     os.Getenv("APP_ENV") == "production",
		LogFile:        logFile,
		GeminiAPIKey:   geminiKey,
		GeminiModelID:  geminiModel,
		StoreBaseURL:   storeURL,
		StoreToken:     os.Getenv("STORE_API_TOKEN"),
		DeepgramAPIKey: deepgramKey,
		DeepgramVoice:  os.Getenv("DEEPGRAM_VOICE_ID"),
		RecognizerURL:  recognizerURL,
		RecognizerKey:  recognizerKey,
		JWTSecret:      jwtSecret,
	}
}
