package main

import (
	"os"

	"github.com/tingold/geobson"
	"github.com/tingold/geobson/internal/config"
	"github.com/tingold/geobson/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to configuration file"`

	Encode  EncodeCommand  `command:"encode"  description:"Convert GeoJSON to BSON"`
	Decode  DecodeCommand  `command:"decode"  description:"Convert BSON to GeoJSON"`
	FGB     FGBCommand     `command:"fgb"     description:"Convert GeoJSON or BSON to FlatGeobuf"`
	Inspect InspectCommand `command:"inspect" description:"Summarize a GeoJSON, BSON or FlatGeobuf file"`
}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		opts.Logger.Setup()
		if err := cmd.Execute(args); err != nil {
			log.Fatal().Err(err).Msg("Command failed")
		}
		return nil
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// newCodec builds a codec from the configuration file, if any.
func newCodec() (*geobson.Codec, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	codecOpts, err := cfg.CodecOptions()
	if err != nil {
		return nil, err
	}
	codecOpts.Logger = log.Logger

	return geobson.NewCodec(codecOpts)
}
