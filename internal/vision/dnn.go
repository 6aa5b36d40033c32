package vision

import (
	"fmt"
	"image"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
)

const dnnInputSize = 640

// DNNConfig points at an exported YOLOv5 ONNX model.
type DNNConfig struct {
	Model   string
	Classes []string
	IoU     float64
	CUDA    bool
}

// DNN runs a YOLOv5 style ONNX network through OpenCV's dnn module.
type DNN struct {
	logger  *zap.Logger
	net     gocv.Net
	classes []string
	iou     float64
}

func NewDNN(logger *zap.Logger, cfg DNNConfig) (*DNN, error) {
	net := gocv.ReadNetFromONNX(cfg.Model)
	if net.Empty() {
		return nil, fmt.Errorf("could not load model %s", cfg.Model)
	}
	if cfg.CUDA {
		net.SetPreferableBackend(gocv.NetBackendCUDA)
		net.SetPreferableTarget(gocv.NetTargetCUDA)
	}
	iou := cfg.IoU
	if iou <= 0 {
		iou = 0.45
	}
	return &DNN{
		logger:  logger.Named("dnn"),
		net:     net,
		classes: cfg.Classes,
		iou:     iou,
	}, nil
}

func (d *DNN) Detect(f *frame.Frame, confidence float32) ([]Detection, error) {
	if f.Empty() {
		return nil, frame.ErrEmpty
	}
	blob := gocv.BlobFromImage(f.Mat(), 1.0/255.0, image.Pt(dnnInputSize, dnnInputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("reading network output: %w", err)
	}
	stride := 5 + len(d.classes)
	if stride <= 5 || len(data)%stride != 0 {
		return nil, fmt.Errorf("network output of %d values does not fit %d classes", len(data), len(d.classes))
	}

	sx := float64(f.Width()) / dnnInputSize
	sy := float64(f.Height()) / dnnInputSize

	var dets []Detection
	for i := 0; i+stride <= len(data); i += stride {
		row := data[i : i+stride]
		objectness := row[4]
		if objectness < confidence {
			continue
		}
		best, bestScore := 0, float32(0)
		for c, s := range row[5:] {
			if s > bestScore {
				best, bestScore = c, s
			}
		}
		score := objectness * bestScore
		if score < confidence {
			continue
		}
		cx, cy, w, h := float64(row[0]), float64(row[1]), float64(row[2]), float64(row[3])
		r, err := geom.NewRect(
			image.Pt(int((cx-w/2)*sx), int((cy-h/2)*sy)),
			image.Pt(int((cx+w/2)*sx), int((cy+h/2)*sy)),
		)
		if err != nil {
			continue
		}
		dets = append(dets, Detection{Label: d.classes[best], Confidence: score, Rect: r})
	}

	dets = nms(dets, d.iou)
	d.logger.Debug("detected", zap.Int("objects", len(dets)))
	return dets, nil
}

func (d *DNN) Close() error {
	return d.net.Close()
}
