package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
	"github.com/lkarlslund/gatherbot/internal/navigation"
	"github.com/lkarlslund/gatherbot/internal/vision"
)

func newLocateCmd(a *app) *cobra.Command {
	var (
		once       bool
		save       string
		showScreen bool
	)
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Show where the localizer puts the agent on the map; Esc quits",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := a.logger.Named("locate")

			r, err := newRig(logger, a.cfg)
			if err != nil {
				return err
			}
			defer r.Close()

			loc, err := r.localizer()
			if err != nil {
				return err
			}
			nav, err := r.navigator()
			if err != nil {
				return err
			}

			canvas := frame.NewCanvas(r.worldMap.Clone())
			defer canvas.Close()

			var (
				det          vision.Detector
				window       *gocv.Window
				screenWindow *gocv.Window
			)
			if showScreen {
				if det, err = r.detector(); err != nil {
					return err
				}
			}
			if !once {
				window = gocv.NewWindow("gatherbot locate")
				defer window.Close()
				if showScreen {
					screenWindow = gocv.NewWindow("gatherbot screen")
					defer screenWindow.Close()
				}
			}

			for {
				if err := ctx.Err(); err != nil {
					return nil
				}
				f, err := r.source.Capture(ctx)
				if err != nil {
					return err
				}
				start := time.Now()
				pos, found, err := loc.Locate(f)
				if err != nil {
					f.Close()
					return err
				}
				screenCanvas, err := annotateScreen(f, det, a.cfg.Gatherer.Confidence, geom.Square(a.cfg.Localizer.CenterPoint(), a.cfg.Localizer.Radius))
				if err != nil {
					return err
				}

				canvas.Reset()
				drawNodes(canvas, nav.Nodes())
				if found {
					vision.DrawPoints(canvas, []geom.Point{pos}, vision.ColorAgent)
					if node, ok := nav.Nearest(pos); ok {
						canvas.Text(fmt.Sprintf("node %d %.1f", node.ID, node.Pos.Dist(pos)), pos.Image(), vision.ColorAgent)
					}
				}
				logger.Debug("Located", zap.Bool("found", found), zap.Stringer("pos", pos), zap.Duration("took", time.Since(start)))

				if once {
					if found {
						fmt.Fprintf(cmd.OutOrStdout(), "%.0f,%.0f\n", pos.X, pos.Y)
					} else {
						fmt.Fprintln(cmd.OutOrStdout(), "not found")
					}
					defer screenCanvas.Close()
					if save != "" {
						out := canvas.Frame()
						defer out.Close()
						if err := out.Save(save); err != nil {
							return err
						}
					}
					if save != "" && showScreen {
						out := screenCanvas.Frame()
						defer out.Close()
						return out.Save(strings.TrimSuffix(save, filepath.Ext(save)) + ".screen" + filepath.Ext(save))
					}
					return nil
				}

				window.IMShow(canvas.Mat())
				if screenWindow != nil {
					screenWindow.IMShow(screenCanvas.Mat())
				}
				screenCanvas.Close()
				if window.WaitKey(5) == 27 {
					return nil
				}
			}
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "locate a single frame and print the position")
	cmd.Flags().StringVar(&save, "save", "", "with --once, write the annotated map here")
	cmd.Flags().BoolVar(&showScreen, "screen", false, "also show the capture with the indicator region and detections")
	cmd.Flags().String("replay", "", "read frames from this directory instead of the game window")
	return cmd
}

// annotateScreen takes ownership of f and marks the indicator region and,
// with a detector, the current targets.
func annotateScreen(f *frame.Frame, det vision.Detector, confidence float32, indicator geom.Rect) (*frame.Canvas, error) {
	c := frame.NewCanvas(f)
	c.Rectangles([]geom.Rect{indicator}, vision.ColorHit)
	if det == nil {
		return c, nil
	}
	dets, err := det.Detect(f, confidence)
	if err != nil {
		c.Close()
		return nil, err
	}
	vision.DrawLabelled(c, dets)
	return c, nil
}

func drawNodes(c *frame.Canvas, nodes []navigation.Node) {
	var ready, cooling []geom.Point
	for _, n := range nodes {
		if n.Cooldown.IsZero() {
			ready = append(ready, n.Pos)
		} else {
			cooling = append(cooling, n.Pos)
		}
	}
	vision.DrawPoints(c, ready, vision.ColorNode)
	vision.DrawPoints(c, cooling, vision.ColorCooldown)
}
