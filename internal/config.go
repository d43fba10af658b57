package internal

import "time"

type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,required=true"`

	BufferSize           int           `env:"BUFFER_SIZE,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,required=true"`
	ReconnectWindow      time.Duration `env:"RECONNECT_WINDOW,required=true"`
	SweepInterval        time.Duration `env:"SWEEP_INTERVAL,required=true"`

	ReconnectTokenSecret string        `env:"RECONNECT_TOKEN_SECRET,required=true"`
	ReconnectTokenTTL    time.Duration `env:"RECONNECT_TOKEN_TTL,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`

	BotEndpoint string        `env:"BOT_ENDPOINT"`
	BotTimeout  time.Duration `env:"BOT_TIMEOUT,default=5s"`

	LogLevel string `env:"LOG_LEVEL,required=true"`
}
