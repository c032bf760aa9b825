package config // package config loads application configuration from environment variables

import (
    "fmt"
    "log"     // log reports malformed values and halts execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings"
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database and JWT settings are optional: when
// any of them is missing the service still starts, serves the catalog, and
// answers authentication and write endpoints with BackendError.
type Config struct {
    Env            string         // application environment (e.g. "dev", "prod")
    Port           string         // HTTP port to listen on
    DBUser         string         // database username
    DBPass         string         // database password (optional)
    DBHost         string         // database host address
    DBPort         string         // database port number
    DBName         string         // database name
    JWTSecret      string         // secret used to sign JWTs
    AccessTTLMin   int            // access token time-to-live in minutes
    RefreshTTLDays int            // refresh token time-to-live in days
    BcryptCost     int            // bcrypt cost for password hashing
    Location       *time.Location // zone that defines "today" for release dates and the date window
    RabbitURL      string         // AMQP broker for cross-instance change events (optional)
    ResyncEvery    time.Duration  // interval of the cache resync job
    LogDir         string         // directory of booking.log
    CORSOrigins    []string       // allowed browser origins
    SMTP           SMTPConfig
    Google         OAuthConfig

    // BackendError is non-empty when the database or JWT settings are
    // incomplete.  It names the missing variables.
    BackendError string
}

// SMTPConfig configures the booking confirmation mailer.
type SMTPConfig struct {
    Host     string
    Port     int
    Username string
    Password string
    From     string
}

// OAuthConfig configures an OAuth2 sign-in provider.
type OAuthConfig struct {
    ClientID     string
    ClientSecret string
    RedirectURL  string
}

// Enabled reports whether the provider has credentials.
func (o OAuthConfig) Enabled() bool { return o.ClientID != "" && o.ClientSecret != "" }

// BackendConfigured reports whether the database and JWT settings are
// complete.
func (c Config) BackendConfigured() bool { return c.BackendError == "" }

// Load reads configuration values from environment variables and returns a
// Config.  Malformed numbers or zone names cause the program to exit with a
// fatal log message; missing backend settings only set BackendError.
func Load() Config {
    cfg := Config{
        Env:            getenv("APP_ENV", "dev"),
        Port:           getenv("APP_PORT", "8080"),
        DBUser:         os.Getenv("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         os.Getenv("DB_HOST"),
        DBPort:         getenv("DB_PORT", "3306"),
        DBName:         os.Getenv("DB_NAME"),
        JWTSecret:      os.Getenv("JWT_SECRET"),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN", 15),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS", 7),
        BcryptCost:     mustInt("BCRYPT_COST", 10),
        Location:       mustLocation("APP_TIMEZONE", "Asia/Seoul"),
        RabbitURL:      firstEnv("RABBITMQ_URL", "AMQP_URL"),
        ResyncEvery:    mustDur("RESYNC_INTERVAL", 5*time.Minute),
        LogDir:         getenv("LOG_DIR", "logs"),
        CORSOrigins:    splitList(getenv("CORS_ORIGINS", "*")),
        SMTP: SMTPConfig{
            Host:     os.Getenv("SMTP_HOST"),
            Port:     mustInt("SMTP_PORT", 587),
            Username: os.Getenv("SMTP_USERNAME"),
            Password: os.Getenv("SMTP_PASSWORD"),
            From:     os.Getenv("SMTP_FROM"),
        },
        Google: OAuthConfig{
            ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
            ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
            RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
        },
    }
    cfg.BackendError = backendError(cfg)
    return cfg
}

func backendError(c Config) string {
    var missing []string
    for _, kv := range [][2]string{
        {"DB_USER", c.DBUser}, {"DB_HOST", c.DBHost}, {"DB_NAME", c.DBName}, {"JWT_SECRET", c.JWTSecret},
    } {
        if kv[1] == "" {
            missing = append(missing, kv[0])
        }
    }
    if len(missing) == 0 {
        return ""
    }
    return fmt.Sprintf("backend not configured: missing %s", strings.Join(missing, ", "))
}

// mustInt reads an integer variable, falling back to def when unset.  A
// value that is set but not an integer is fatal.
func mustInt(key string, def int) int {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

func mustDur(key string, def time.Duration) time.Duration {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    d, err := time.ParseDuration(s)
    if err != nil || d <= 0 {
        log.Fatalf("invalid duration for %s: %q", key, s)
    }
    return d
}

func mustLocation(key, def string) *time.Location {
    name := getenv(key, def)
    loc, err := time.LoadLocation(name)
    if err != nil {
        log.Fatalf("invalid time zone for %s: %q", key, name)
    }
    return loc
}

func mustBool(key string, def bool) bool {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    b, err := strconv.ParseBool(s)
    if err != nil {
        log.Fatalf("invalid bool for %s: %q", key, s)
    }
    return b
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func firstEnv(keys ...string) string {
    for _, k := range keys {
        if v := os.Getenv(k); v != "" {
            return v
        }
    }
    return ""
}

func splitList(s string) []string {
    out := []string{}
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
