package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/markdave123-py/Mosaic/internal/core/extractors"
)

type Config struct {
	AIAPIKey      string
	GenModel      string
	EmbedModel    string
	EmbedProvider string // auto | gemini | hash
	EmbedDim      int

	VectorStore    string // sqlite | pgvector
	VectorStoreDir string
	CollectionName string
	DatabaseURL    string

	UploadDir     string
	MaxFileSizeMB int

	Formats extractors.Formats

	OCREngine          string // gemini | tesseract
	TranscriptLanguage string
	FFmpegPath         string
	FFprobePath        string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	JWTSecret         string
	AdminPasswordHash string

	ChunkTokens  int
	ChunkOverlap int
	TopK         int

	Port     string
	LogLevel string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	formats := extractors.DefaultFormats()

	cfg := &Config{
		AIAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GenModel:      getEnv("GEN_MODEL", "gemini-1.5-flash"),
		EmbedModel:    getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedProvider: strings.ToLower(getEnv("EMBED_PROVIDER", "auto")),
		EmbedDim:      getEnvInt("EMBED_DIM", 768),

		VectorStore:    strings.ToLower(getEnv("VECTOR_STORE", "sqlite")),
		VectorStoreDir: getEnv("VECTOR_STORE_DIR", "./chroma_db"),
		CollectionName: getEnv("COLLECTION_NAME", "multimodal_rag"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		UploadDir:     getEnv("UPLOAD_DIR", "./uploaded_files"),
		MaxFileSizeMB: getEnvInt("MAX_FILE_SIZE_MB", 200),

		Formats: extractors.Formats{
			Text:  getEnvList("SUPPORTED_TEXT_FORMATS", formats.Text),
			Image: getEnvList("SUPPORTED_IMAGE_FORMATS", formats.Image),
			Audio: getEnvList("SUPPORTED_AUDIO_FORMATS", formats.Audio),
			Video: getEnvList("SUPPORTED_VIDEO_FORMATS", formats.Video),
		},

		OCREngine:          strings.ToLower(getEnv("OCR_ENGINE", "gemini")),
		TranscriptLanguage: getEnv("TRANSCRIPT_LANGUAGE", "en"),
		FFmpegPath:         getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:        getEnv("FFPROBE_PATH", "ffprobe"),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", ""),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		ChunkTokens:  getEnvInt("CHUNK_TOKENS", 512),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 50),
		TopK:         getEnvInt("TOP_K", 5),

		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.VectorStore == "pgvector" && cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// MaxFileSizeBytes is the upload ceiling derived from MAX_FILE_SIZE_MB.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// S3Enabled reports whether uploads should also be archived to S3.
func (c *Config) S3Enabled() bool {
	return c.BucketName != "" && c.AwsAccessKey != "" && c.AwsSecretKey != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

// getEnvList reads a comma separated list of extensions, normalized to ".ext" lower case.
func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return def
	}
	return out
}
