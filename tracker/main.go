package main

import (
    "errors"
    "flag"
    "fmt"
    "log"
    "os"
    "strconv"
    "strings"

    "github.com/kazzmir/modplayer/equalizer"
    "github.com/kazzmir/modplayer/mod"
)

type Options struct {
    WriteFile bool
    Output string
    Duration int
    SampleRate int
    Bits int
    Layout string
    Pan int
    Volume int
    Interpolate bool
    Order int
    Bands int
    Gui bool
    Instruments string
    Mute string
}

func parseOptions(arguments []string) (Options, []string, error) {
    var options Options

    flags := flag.NewFlagSet("tracker", flag.ContinueOnError)
    flags.BoolVar(&options.WriteFile, "writefile", false, "render to a wave file instead of playing")
    flags.StringVar(&options.Output, "out", "output.wav", "wave file written with -writefile")
    flags.IntVar(&options.Duration, "duration", 60000, "milliseconds rendered with -writefile")
    flags.IntVar(&options.SampleRate, "rate", 44100, "output sample rate")
    flags.IntVar(&options.Bits, "bits", 16, "bits per sample, 8 or 16")
    flags.StringVar(&options.Layout, "layout", "stereo", "mono, stereo, pan or surround")
    flags.IntVar(&options.Pan, "pan", 0, "stereo blend for the pan layout, 0-100")
    flags.IntVar(&options.Volume, "volume", mod.DefaultMasterVolume, "master volume 0-64")
    flags.BoolVar(&options.Interpolate, "interpolate", false, "linear interpolation between samples")
    flags.IntVar(&options.Order, "order", 0, "order to start playing from")
    flags.IntVar(&options.Bands, "bands", 10, "number of equalizer bands, 0 disables the equalizer")
    flags.BoolVar(&options.Gui, "gui", false, "play in a window")
    flags.StringVar(&options.Instruments, "instruments", "", "export the instruments as wave files into this directory")
    flags.StringVar(&options.Mute, "mute", "", "comma separated tracks to mute, starting at 0")
    flags.Usage = func() {
        fmt.Fprintf(flags.Output(), "Usage: tracker [options] <path to mod file>\n")
        flags.PrintDefaults()
    }

    err := flags.Parse(arguments)
    if err != nil {
        return options, nil, err
    }

    return options, flags.Args(), nil
}

func parseTracks(list string) ([]int, error) {
    var tracks []int
    for _, part := range strings.Split(list, ",") {
        part = strings.TrimSpace(part)
        if part == "" {
            continue
        }
        track, err := strconv.Atoi(part)
        if err != nil {
            return nil, fmt.Errorf("invalid track '%v': %w", part, err)
        }
        tracks = append(tracks, track)
    }
    return tracks, nil
}

func loadSong(path string) (*mod.Song, error) {
    file, err := os.Open(path)
    if err != nil {
        return nil, err
    }
    defer file.Close()

    return mod.Load(file)
}

func writeWave(player *mod.Player, path string, milliseconds int) error {
    file, err := os.Create(path)
    if err != nil {
        return err
    }

    err = player.WriteWave(file, milliseconds)
    if err != nil {
        file.Close()
        return err
    }

    log.Printf("Wrote %vms to %v", milliseconds, path)
    return file.Close()
}

func run(arguments []string) error {
    options, paths, err := parseOptions(arguments)
    if err != nil {
        return err
    }

    if len(paths) < 1 {
        return errors.New("no module given")
    }

    path := paths[0]
    song, err := loadSong(path)
    if err != nil {
        return fmt.Errorf("loading %v: %w", path, err)
    }
    log.Printf("Successfully loaded %v", path)

    describeSong(song)

    if options.Instruments != "" {
        _, err := mod.ExportInstruments(song, options.Instruments)
        if err != nil {
            return err
        }
    }

    layout, err := mod.ParseLayout(options.Layout)
    if err != nil {
        return err
    }

    if options.Gui {
        // ebiten audio only takes 16-bit stereo
        options.Bits = 16
        if layout == mod.LayoutMono {
            log.Printf("Window playback is stereo, ignoring the mono layout")
            layout = mod.LayoutStereo
        }
    }

    player := mod.MakePlayer()
    err = player.PrepareToPlay(song, options.SampleRate, options.Bits, layout, options.Volume)
    if err != nil {
        return err
    }

    err = player.SetStereoPan(options.Pan)
    if err != nil {
        return err
    }
    player.SetInterpolation(options.Interpolate)

    tracks, err := parseTracks(options.Mute)
    if err != nil {
        return err
    }
    for _, track := range tracks {
        err := player.MuteTrack(track, true)
        if err != nil {
            return err
        }
    }

    if options.Order != 0 {
        err := player.JumpToOrder(options.Order)
        if err != nil {
            return err
        }
    }

    var eq *equalizer.Equalizer
    if options.Bands > 0 {
        eq, err = equalizer.MakeEqualizer(options.SampleRate, options.Bands)
        if err != nil {
            return err
        }
        player.SetEqualizer(eq)
    }

    switch {
        case options.WriteFile:
            return writeWave(player, options.Output, options.Duration)
        case options.Gui:
            return runGui(player, eq)
        default:
            return runConsole(player, eq)
    }
}

func main(){
    log.SetFlags(log.Lshortfile | log.Ldate | log.Lmicroseconds)

    err := run(os.Args[1:])
    if err != nil {
        if errors.Is(err, flag.ErrHelp) {
            return
        }
        log.Printf("Error: %v", err)
        os.Exit(1)
    }
}
