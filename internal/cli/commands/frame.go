package commands

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boardkit/internal/cli/config"
	"github.com/leapstack-labs/boardkit/pkg/framing"
)

// FrameOptions holds options for the frame command.
type FrameOptions struct {
	File        string
	Card        string
	Rotate      float64 // degrees
	Zoom        float64 // multiple of the minimum cover scale
	PanX        float64
	PanY        float64
	Background  string
	Interactive bool
}

// NewFrameCommand creates the frame command.
func NewFrameCommand() *cobra.Command {
	opts := &FrameOptions{}

	cmd := &cobra.Command{
		Use:   "frame <image>",
		Short: "Fit an image into the card frame and render it as PNG",
		Long: `Fit a source image (PNG, JPEG, GIF, BMP, TIFF or WebP) into the card frame.

The image is rotated, zoomed and panned but always covers the whole frame;
zoom runs from the smallest covering scale up to framing.max_zoom times it.
The frame size is framing.width x framing.height, or the schema's image spec
when framing for a card.

With --interactive the view is adjusted in the terminal:
  arrows        pan 10px (shift+arrows 1px)
  + / -         zoom in / out
  [ / ]         rotate -90 / +90 degrees
  r             reset
  enter         save
  esc           cancel`,
		Example: `  # Render a centred, fully zoomed-out frame
  boardkit frame photo.jpg --file card.png

  # Rotate a quarter turn and zoom to 150%
  boardkit frame photo.jpg --file card.png --rotate 90 --zoom 1.5

  # Adjust interactively and store the result on a card
  boardkit frame photo.jpg --card 7f3c... -i`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrame(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Write the framed PNG to this file")
	cmd.Flags().StringVar(&opts.Card, "card", "", "Store the framed image on this card")
	cmd.Flags().Float64Var(&opts.Rotate, "rotate", 0, "Rotation in degrees")
	cmd.Flags().Float64Var(&opts.Zoom, "zoom", 1, "Zoom as a multiple of the smallest covering scale")
	cmd.Flags().Float64Var(&opts.PanX, "pan-x", 0, "Horizontal pan in output pixels")
	cmd.Flags().Float64Var(&opts.PanY, "pan-y", 0, "Vertical pan in output pixels")
	cmd.Flags().StringVar(&opts.Background, "background", "", "Fill colour as #rrggbb (default framing.background)")
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "Adjust the frame in the terminal")

	return cmd
}

func runFrame(cmd *cobra.Command, imagePath string, opts *FrameOptions) error {
	if opts.File == "" && opts.Card == "" {
		return errors.New("nothing to write: pass --file or --card")
	}

	cmdCtx := NewCommandContextWithoutStore(cmd)
	r := cmdCtx.Renderer

	fopts, err := framingOptions(cmdCtx.Cfg, opts.Background)
	if err != nil {
		return err
	}

	// Framing for a card uses the schema's image spec.
	var cardCtx *CommandContext
	if opts.Card != "" {
		var cleanup func()
		cardCtx, cleanup, err = NewCommandContext(cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		if _, err := cardCtx.Catalog.Card(opts.Card); err != nil {
			return err
		}
		if spec := cardCtx.Catalog.Schema().ImageSpec; spec != nil && spec.Width > 0 && spec.Height > 0 {
			fopts.Width, fopts.Height = spec.Width, spec.Height
		}
	}

	src, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = src.Close() }()

	studio := framing.NewStudio(cmdCtx.Logger)
	session, err := studio.Open(cmd.Context(), src, fopts)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	if err := applyFrameFlags(session, opts); err != nil {
		return err
	}

	if opts.Interactive {
		m := newFrameModel(session, imagePath)
		p := tea.NewProgram(m,
			tea.WithContext(cmd.Context()),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.ErrOrStderr()),
			tea.WithMouseCellMotion())
		final, err := p.Run()
		if err != nil {
			session.Cancel()
			return fmt.Errorf("interactive framing failed: %w", err)
		}
		if fm, ok := final.(*frameModel); !ok || !fm.committed {
			session.Cancel()
			return framing.ErrCancelled
		}
	}

	var png bytes.Buffer
	if err := session.Commit(&png); err != nil {
		return err
	}
	w, h := session.Size()

	if opts.File != "" {
		if err := os.WriteFile(opts.File, png.Bytes(), 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.File, err)
		}
		r.Success(fmt.Sprintf("Wrote %dx%d frame to %s", w, h, opts.File))
	}

	if cardCtx != nil {
		rec, err := cardCtx.Catalog.Card(opts.Card)
		if err != nil {
			return err
		}
		rec.Image = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png.Bytes())
		if _, err := cardCtx.Catalog.SaveCard(rec); err != nil {
			return err
		}
		if err := cardCtx.Save(cmd); err != nil {
			return err
		}
		r.Success(fmt.Sprintf("Stored %dx%d image on card %s", w, h, opts.Card))
	}
	return nil
}

// framingOptions builds session options from configuration. A non-empty
// background overrides framing.background.
func framingOptions(cfg *config.Config, background string) (framing.Options, error) {
	if background == "" {
		background = cfg.Framing.Background
	}
	bg, err := framing.ParseHexColor(background)
	if err != nil {
		return framing.Options{}, err
	}
	return framing.Options{
		Width:      cfg.Framing.Width,
		Height:     cfg.Framing.Height,
		Background: bg,
		MaxZoom:    cfg.Framing.MaxZoom,
	}, nil
}

// applyFrameFlags rotates, zooms and pans in that order, so pan is read in
// the final screen orientation.
func applyFrameFlags(s *framing.Session, opts *FrameOptions) error {
	if opts.Rotate != 0 {
		if err := s.Rotate(opts.Rotate * math.Pi / 180); err != nil {
			return err
		}
	}
	if opts.Zoom != 1 {
		if opts.Zoom <= 0 {
			return fmt.Errorf("invalid --zoom %v: must be positive", opts.Zoom)
		}
		if err := s.SetScale(s.State().MinScale * opts.Zoom); err != nil {
			return err
		}
	}
	if opts.PanX != 0 || opts.PanY != 0 {
		if err := s.Pan(opts.PanX, opts.PanY); err != nil {
			return err
		}
	}
	return nil
}
