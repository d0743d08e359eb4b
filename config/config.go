package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	OTPTTL      time.Duration
	SMTP        SMTPConfig
	PublicDir   string
	Debug       bool
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// ParseFlags reads configuration from command-line flags, falling back to
// environment variables (a .env file is loaded when present).
func ParseFlags() (cfg Config, err error) {
	godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envString("HOST", "0.0.0.0"), "listen host name")
	var port uint
	flag.UintVar(&port, "port", envUint("PORT", 3001), "listen port number")
	flag.StringVar(&cfg.DBUrl, "db-url", envString("DB_URL", "ezza.sqlite"), "path to SQLite3 DB file")
	flag.StringVar(&cfg.TokenSecret, "token-secret", envString("JWT_SECRET", ""), "secret key for session token signing")
	var tokenTTL uint
	flag.UintVar(&tokenTTL, "token-ttl", envUint("TOKEN_TTL", 3600), "session token TTL in seconds")
	var otpTTL uint
	flag.UintVar(&otpTTL, "otp-ttl", envUint("OTP_TTL", 300), "login OTP TTL in seconds")
	flag.StringVar(&cfg.PublicDir, "public-dir", envString("PUBLIC_DIR", "public"), "directory of static public assets")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(tokenTTL) * time.Second
	cfg.OTPTTL = time.Duration(otpTTL) * time.Second

	cfg.SMTP = SMTPConfig{
		Host: os.Getenv("SMTP_HOST"),
		Port: int(envUint("SMTP_PORT", 587)),
		User: os.Getenv("SMTP_USER"),
		Pass: os.Getenv("SMTP_PASS"),
		From: os.Getenv("SMTP_FROM"),
	}

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret (or JWT_SECRET)")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint) uint {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}
