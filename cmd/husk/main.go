package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/avokadi/husk"
	"github.com/avokadi/husk/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// streamFlags collects repeated --stream descriptors.
type streamFlags []string

func (s *streamFlags) String() string     { return strings.Join(*s, " ") }
func (s *streamFlags) Set(v string) error { *s = append(*s, v); return nil }

// cuePointFlags parses a comma-separated cue point list.
type cuePointFlags []float64

func (c *cuePointFlags) String() string {
	parts := make([]string, len(*c))
	for i, v := range *c {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (c *cuePointFlags) Set(v string) error {
	for _, field := range strings.Split(v, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		point, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return fmt.Errorf("invalid cue point %q", field)
		}
		*c = append(*c, point)
	}
	return nil
}

func run() error {
	var (
		streams    streamFlags
		cuePoints  cuePointFlags
		showVer    = flag.Bool("version", false, "print version and exit")
		verbose    = flag.Bool("v", false, "verbose logging")
		noProgress = flag.Bool("no-progress", false, "disable the progress UI")

		mpdOutput   = flag.String("mpd_output", "", "MPD output path")
		hlsOutput   = flag.String("hls_master_playlist_output", "", "HLS master playlist output path")
		hlsPlaylist = flag.String("hls_playlist_type", "vod", "HLS playlist type: vod, event, live")
		defaultLang = flag.String("default_language", "", "default audio/text language")

		segmentDuration = flag.Float64("segment_duration", 6, "segment duration in seconds")
		sapAligned      = flag.Bool("segment_sap_aligned", true, "force segments to begin with stream access points")
		subsegAligned   = flag.Bool("subsegment_sap_aligned", true, "force subsegments to begin with stream access points")

		keys             = flag.String("keys", "", "raw keys: label=LABEL:key_id=HEX:key=HEX, semicolon separated")
		protectionScheme = flag.String("protection_scheme", "cenc", "protection scheme: cenc, cens, cbc1, cbcs")

		outputMediaInfo = flag.String("output_media_info", "false", "write .media_info files next to outputs")
		dumpStreamInfo  = flag.Bool("dump_stream_info", false, "dump input stream info and exit")
		tempDir         = flag.String("temp_dir", "", "directory for intermediate files")
	)
	flag.Var(&streams, "stream", "stream descriptor (repeatable): input=...,stream=...,output=...")
	flag.Var(&cuePoints, "ad_cues", "ad cue points in seconds, comma separated")
	flag.Parse()

	if *showVer {
		fmt.Println(husk.GetLibraryVersion())
		return nil
	}

	// Positional arguments are stream descriptors too, matching the
	// usual packager invocation style.
	streams = append(streams, flag.Args()...)
	if len(streams) == 0 {
		return fmt.Errorf("at least one --stream descriptor is required")
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	params := husk.NewPackagingParams()
	params.Logger = logger
	params.TempDir = *tempDir
	params.MpdParams.MpdOutput = *mpdOutput
	params.MpdParams.DefaultLanguage = *defaultLang
	params.HlsParams.MasterPlaylistOutput = *hlsOutput
	params.HlsParams.DefaultLanguage = *defaultLang
	params.ChunkingParams.SegmentDurationInSeconds = *segmentDuration
	params.ChunkingParams.SegmentSAPAligned = *sapAligned
	params.ChunkingParams.SubsegmentSAPAligned = *subsegAligned
	params.AdCueGeneratorParams.CuePoints = cuePoints
	params.TestParams.DumpStreamInfo = *dumpStreamInfo

	switch *hlsPlaylist {
	case "vod":
		params.HlsParams.PlaylistType = husk.HlsPlaylistVod
	case "event":
		params.HlsParams.PlaylistType = husk.HlsPlaylistEvent
	case "live":
		params.HlsParams.PlaylistType = husk.HlsPlaylistLive
	default:
		return fmt.Errorf("unknown HLS playlist type %q", *hlsPlaylist)
	}

	if omi, err := strconv.ParseBool(*outputMediaInfo); err == nil {
		params.OutputMediaInfo = omi
	}

	if *keys != "" {
		rawKeys, err := parseRawKeys(*keys)
		if err != nil {
			return err
		}
		params.EncryptionParams.KeyProvider = husk.KeyProviderRaw
		params.EncryptionParams.RawKey = rawKeys
		scheme, err := parseProtectionScheme(*protectionScheme)
		if err != nil {
			return err
		}
		params.EncryptionParams.ProtectionScheme = scheme
	}

	descriptors := make([]husk.StreamDescriptor, 0, len(streams))
	for _, spec := range streams {
		d, err := husk.ParseStreamDescriptor(spec)
		if err != nil {
			return err
		}
		descriptors = append(descriptors, d)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	packager := husk.New()
	if err := packager.Initialize(params, descriptors); err != nil {
		return err
	}

	if *noProgress {
		return packager.Run(ctx)
	}
	return runWithProgress(ctx, packager)
}

func runWithProgress(ctx context.Context, packager *husk.Packager) error {
	model := tui.NewModel("husk", packager.Jobs, packager.Cancel)
	program := tea.NewProgram(model)

	errCh := make(chan error, 1)
	go func() {
		err := packager.Run(ctx)
		errCh <- err
		program.Send(tui.DoneMsg{Err: err})
	}()

	if _, err := program.Run(); err != nil {
		return err
	}
	return <-errCh
}

// parseRawKeys parses "label=SD:key_id=<hex>:key=<hex>;label=..." into
// raw key params.
func parseRawKeys(spec string) (husk.RawKeyParams, error) {
	params := husk.RawKeyParams{Keys: make(map[string]husk.RawKey)}
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		label := ""
		var key husk.RawKey
		for _, field := range strings.Split(entry, ":") {
			name, value, found := strings.Cut(field, "=")
			if !found {
				return params, fmt.Errorf("invalid key field %q", field)
			}
			switch name {
			case "label":
				label = value
			case "key_id":
				key.KeyID = value
			case "key":
				key.Key = value
			case "iv":
				key.IV = value
			default:
				return params, fmt.Errorf("unknown key field %q", name)
			}
		}
		params.Keys[label] = key
	}
	if len(params.Keys) == 0 {
		return params, fmt.Errorf("no keys specified")
	}
	return params, nil
}

func parseProtectionScheme(name string) (husk.ProtectionScheme, error) {
	switch name {
	case "cenc":
		return husk.SchemeCENC, nil
	case "cens":
		return husk.SchemeCENS, nil
	case "cbc1":
		return husk.SchemeCBC1, nil
	case "cbcs":
		return husk.SchemeCBCS, nil
	default:
		return 0, fmt.Errorf("unknown protection scheme %q", name)
	}
}
