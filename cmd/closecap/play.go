package main

import "os"
import "fmt"
import "time"
import "image"
import "image/png"
import "image/color"

import "github.com/spf13/cobra"
import "golang.org/x/image/draw"

import "github.com/tinne26/closecap"
import "github.com/tinne26/closecap/config"
import "github.com/tinne26/closecap/paint"

func playCommand() *cobra.Command {
	var configPath, language, dataDir, pngPath string
	var seconds float64
	var width, height int
	cmd := &cobra.Command{
		Use: "play <token>...",
		Short: "Runs a headless caption session and renders the last frame",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil { return err }
			if language != "" { cfg.Language = language }
			if dataDir != "" { cfg.DataDir = dataDir }
			session, err := closecap.New(cfg, closecap.Options{})
			if err != nil { return err }
			defer session.Close()

			for _, token := range args {
				err := session.EmitToken(token, 0, true)
				if err != nil { return fmt.Errorf("%s: %w", token, err) }
			}

			// wait for the initial reads, then simulate at 60 TPS
			deadline := time.Now().Add(cfg.FlushTimeout)
			for session.Pipeline().Len() > 0 && time.Now().Before(deadline) {
				session.Update(0)
				time.Sleep(time.Millisecond)
			}
			const frame = time.Second/60
			frames := int(seconds*60)
			for i := 0; i < frames; i++ { session.Update(frame) }

			out := cmd.OutOrStdout()
			for _, item := range session.Scheduler().Items() {
				fmt.Fprintf(out, "%q ttl %s\n", item.Text, item.TTL())
			}
			if pngPath == "" { return nil }

			target := image.NewRGBA(image.Rect(0, 0, width, height))
			draw.Draw(target, target.Bounds(), image.NewUniform(color.RGBA{32, 40, 48, 255}), image.Point{}, draw.Src)
			session.Paint(paint.NewImageSurface(target, session.Faces()))
			file, err := os.Create(pngPath)
			if err != nil { return err }
			err = png.Encode(file, target)
			if err != nil {
				file.Close()
				return err
			}
			return file.Close()
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "TOML settings file")
	flags.StringVarP(&language, "lang", "l", "", "caption language, overrides the settings")
	flags.StringVarP(&dataDir, "data", "d", "", "caption databases directory, overrides the settings")
	flags.StringVar(&pngPath, "png", "", "writes the last frame to the given PNG file")
	flags.Float64VarP(&seconds, "seconds", "s", 1, "simulated time")
	flags.IntVar(&width, "width", 640, "frame width")
	flags.IntVar(&height, "height", 480, "frame height")
	return cmd
}
