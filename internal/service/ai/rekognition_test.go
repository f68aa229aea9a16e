package ai

import (
	"context"
	"errors"
	"testing"

	"labelvision/internal/logger"
	"labelvision/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRekognition struct {
	input *rekognition.DetectLabelsInput
	out   *rekognition.DetectLabelsOutput
	err   error
}

func (f *fakeRekognition) DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	f.input = params
	return f.out, f.err
}

var defaultParams = model.DetectParams{MaxLabels: 10, MinConfidence: 70}

func TestRekognitionDetector_Bytes(t *testing.T) {
	client := &fakeRekognition{out: &rekognition.DetectLabelsOutput{
		LabelModelVersion: aws.String("3.0"),
		Labels: []types.Label{
			{
				Name:       aws.String("Car"),
				Confidence: aws.Float32(95.12),
				Instances: []types.Instance{
					{
						Confidence: aws.Float32(95.12),
						BoundingBox: &types.BoundingBox{
							Left: aws.Float32(0.1), Top: aws.Float32(0.25), Width: aws.Float32(0.5), Height: aws.Float32(0.3),
						},
					},
					{Confidence: aws.Float32(71)},
				},
			},
			{Name: aws.String("Road"), Confidence: aws.Float32(88)},
		},
	}}

	d := NewRekognitionDetector(client, logger.Nop())
	out, err := d.DetectLabels(context.Background(), model.ImageSource{Bytes: []byte{1, 2, 3}}, defaultParams)
	require.NoError(t, err)

	require.NotNil(t, client.input.Image)
	assert.Equal(t, []byte{1, 2, 3}, client.input.Image.Bytes)
	assert.Nil(t, client.input.Image.S3Object)
	assert.Equal(t, int32(10), aws.ToInt32(client.input.MaxLabels))
	assert.Equal(t, float32(70), aws.ToFloat32(client.input.MinConfidence))

	assert.Equal(t, "3.0", out.ModelVersion)
	require.Len(t, out.Labels, 2)
	car := out.Labels[0]
	assert.Equal(t, "Car", car.Name)
	assert.Equal(t, 95.12, car.Confidence)
	require.Len(t, car.Instances, 2)
	assert.Equal(t, &model.Box{Left: 0.1, Top: 0.25, Width: 0.5, Height: 0.3}, car.Instances[0].BoundingBox)
	assert.Nil(t, car.Instances[1].BoundingBox)
	assert.Empty(t, out.Labels[1].Instances)
}

func TestRekognitionDetector_ObjectReference(t *testing.T) {
	client := &fakeRekognition{out: &rekognition.DetectLabelsOutput{}}
	d := NewRekognitionDetector(client, logger.Nop())

	ref := &model.ObjectRef{Bucket: "photos", Key: "uploads/1_a.jpg"}
	out, err := d.DetectLabels(context.Background(), model.ImageSource{Object: ref}, defaultParams)
	require.NoError(t, err)
	assert.Empty(t, out.Labels)

	require.NotNil(t, client.input.Image.S3Object)
	assert.Equal(t, "photos", aws.ToString(client.input.Image.S3Object.Bucket))
	assert.Equal(t, "uploads/1_a.jpg", aws.ToString(client.input.Image.S3Object.Name))
	assert.Nil(t, client.input.Image.Bytes)
}

func TestRekognitionDetector_Errors(t *testing.T) {
	d := NewRekognitionDetector(&fakeRekognition{err: errors.New("InvalidImageFormatException")}, logger.Nop())

	_, err := d.DetectLabels(context.Background(), model.ImageSource{Bytes: []byte{1}}, defaultParams)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidImageFormatException")

	_, err = d.DetectLabels(context.Background(), model.ImageSource{}, defaultParams)
	assert.Error(t, err)
}

func TestWiden(t *testing.T) {
	assert.Equal(t, 0.0, widen(nil))
	assert.Equal(t, 95.12, widen(aws.Float32(95.12)))
	assert.Equal(t, 0.3, widen(aws.Float32(0.3)))
}
