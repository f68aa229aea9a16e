package ai

import (
	"context"
	"strconv"

	"labelvision/internal/logger"
	"labelvision/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/pkg/errors"
)

// RekognitionAPI is the subset of the Rekognition client used here.
type RekognitionAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionDetector detects labels with AWS Rekognition.
type RekognitionDetector struct {
	client RekognitionAPI
	logger *logger.Logger
}

// NewRekognitionDetector creates a detector backed by the given client.
func NewRekognitionDetector(client RekognitionAPI, logger *logger.Logger) *RekognitionDetector {
	return &RekognitionDetector{
		client: client,
		logger: logger,
	}
}

// ReadsReferences reports that Rekognition reads S3 objects itself.
func (d *RekognitionDetector) ReadsReferences() bool {
	return true
}

// DetectLabels sends the image by bytes or as an S3 object reference.
func (d *RekognitionDetector) DetectLabels(ctx context.Context, img model.ImageSource, params model.DetectParams) (*model.DetectorOutput, error) {
	input := &rekognition.DetectLabelsInput{
		MaxLabels:     aws.Int32(int32(params.MaxLabels)),
		MinConfidence: aws.Float32(float32(params.MinConfidence)),
	}

	switch {
	case img.Object != nil:
		input.Image = &types.Image{S3Object: &types.S3Object{
			Bucket: aws.String(img.Object.Bucket),
			Name:   aws.String(img.Object.Key),
		}}
		d.logger.Info("Rekognition.DetectLabels on s3://%s/%s", img.Object.Bucket, img.Object.Key)
	case len(img.Bytes) > 0:
		input.Image = &types.Image{Bytes: img.Bytes}
		d.logger.Info("Rekognition.DetectLabels on %d bytes", len(img.Bytes))
	default:
		return nil, errors.New("rekognition: empty image source")
	}

	out, err := d.client.DetectLabels(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, "rekognition detect labels")
	}

	return convertLabels(out), nil
}

func convertLabels(out *rekognition.DetectLabelsOutput) *model.DetectorOutput {
	result := &model.DetectorOutput{
		Labels:       make([]model.Detection, 0, len(out.Labels)),
		ModelVersion: aws.ToString(out.LabelModelVersion),
	}

	for _, l := range out.Labels {
		det := model.Detection{
			Name:       aws.ToString(l.Name),
			Confidence: widen(l.Confidence),
			Instances:  make([]model.Instance, 0, len(l.Instances)),
		}
		for _, inst := range l.Instances {
			instance := model.Instance{Confidence: widen(inst.Confidence)}
			if b := inst.BoundingBox; b != nil {
				instance.BoundingBox = &model.Box{
					Left:   widen(b.Left),
					Top:    widen(b.Top),
					Width:  widen(b.Width),
					Height: widen(b.Height),
				}
			}
			det.Instances = append(det.Instances, instance)
		}
		result.Labels = append(result.Labels, det)
	}

	return result
}

// widen converts a float32 to the float64 with the same shortest decimal form,
// so 95.12 stays 95.12 instead of 95.12000274658203.
func widen(f *float32) float64 {
	if f == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(*f), 'f', -1, 32), 64)
	if err != nil {
		return float64(*f)
	}
	return v
}
