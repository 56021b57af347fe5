package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng
// Nó chứa thông tin cơ sở dữ liệu và các provider bên ngoài
type Configuration struct {
	Address               string `env:"ADDRESS" envDefault:":8080"`      // Địa chỉ server
	JwtSecret             string `env:"JWT_SECRET,required"`             // Bí mật JWT
	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"` // URL kết nối cơ sở dữ liệu
	MongoDB_DBName        string `env:"MONGODB_DBNAME,required"`         // Tên cơ sở dữ liệu
	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`     // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"` // Số request tối đa trong window (0 = disable rate limit)
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"` // Thời gian window (giây)
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// Generative Text Provider (Gemini REST API)
	GeminiAPIKey  string `env:"GEMINI_API_KEY,required"`                    // API key cho Gemini
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"` // Model dùng cho chat và tóm tắt
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"` // Base URL gồm cả segment phiên bản API (đổi được khi test)

	// Push Delivery Provider (Expo Push REST API)
	ExpoPushURL string `env:"EXPO_PUSH_URL" envDefault:"https://exp.host/--/api/v2/push/send"` // Endpoint gửi push

	// Email fallback (gửi khi admin không có push token)
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	// Frontend URL — dùng để build deep link trong push notification
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	// Retention sweeper
	SessionRetentionDays   int `env:"SESSION_RETENTION_DAYS" envDefault:"30"`         // Session cũ hơn số ngày này sẽ bị xóa
	SessionCleanupHours    int `env:"SESSION_CLEANUP_INTERVAL_HOURS" envDefault:"24"` // Chu kỳ chạy sweeper (giờ)
	SessionCleanupPageSize int `env:"SESSION_CLEANUP_PAGE_SIZE" envDefault:"100"`     // Số message xóa mỗi trang

	// AI orchestrator
	AILeaseTTLSeconds int `env:"AI_LEASE_TTL_SECONDS" envDefault:"300"` // Lease quá hạn sẽ được thu hồi khi acquire
	AIContextLimit    int `env:"AI_CONTEXT_LIMIT" envDefault:"20"`      // Số message gần nhất đưa vào context
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	// Mặc định sử dụng môi trường development
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	// Tìm thư mục config/env bằng cách đi lên từ thư mục hiện tại
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", env))
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig sẽ đọc dữ liệu cấu hình từ file env được cung cấp
func NewConfig(files ...string) *Configuration {
	envPath := getEnvPath()
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			// Không fatal — cho phép chạy thuần bằng environment variables (container)
			fmt.Printf("Không thể load file env tại %s: %v\n", envPath, err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Printf("Lỗi khi parse config: %+v\n", err)
		return nil
	}

	return &cfg
}
