package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSQSClient struct {
	mock.Mock
}

func (m *MockSQSClient) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.SendMessageOutput), args.Error(1)
}

func sampleEntry() Entry {
	return Entry{
		Time:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Method:    "POST",
		Path:      "/payments",
		Operation: "POST /payments",
		Status:    201,
		Source:    "example",
		Reference: "0b6f0a36-5f55-4d67-9d43-4d3e1c1f6a11",
		LatencyMs: 1.25,
		Body:      json.RawMessage(`{"status":"pending"}`),
	}
}

func TestSQSSink_Record(t *testing.T) {
	client := new(MockSQSClient)
	client.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		var got Entry
		if err := json.Unmarshal([]byte(*in.MessageBody), &got); err != nil {
			return false
		}
		return *in.QueueUrl == "https://sqs.us-east-1.amazonaws.com/123/journal" &&
			got.Reference == "0b6f0a36-5f55-4d67-9d43-4d3e1c1f6a11" &&
			*in.MessageAttributes["status"].StringValue == "201"
	})).Return(&sqs.SendMessageOutput{}, nil).Once()

	sink := NewSQSSink(client, "https://sqs.us-east-1.amazonaws.com/123/journal")
	require.NoError(t, sink.Record(context.Background(), sampleEntry()))
	client.AssertExpectations(t)
}

func TestSQSSink_Error(t *testing.T) {
	client := new(MockSQSClient)
	client.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := NewSQSSink(client, "q").Record(context.Background(), sampleEntry())
	assert.ErrorContains(t, err, "throttled")
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))

	require.NoError(t, sink.Record(context.Background(), sampleEntry()))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "journal", line["component"])
	assert.Equal(t, "/payments", line["path"])
	assert.Equal(t, float64(201), line["status"])
	assert.Equal(t, "example", line["source"])
	assert.Equal(t, map[string]interface{}{"status": "pending"}, line["body"])
}

func TestLogSink_NonJSONBody(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))

	entry := sampleEntry()
	entry.Body = json.RawMessage(`plain text`)
	require.NoError(t, sink.Record(context.Background(), entry))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "plain text", line["body"])

	buf.Reset()
	entry.Body = nil
	require.NoError(t, sink.Record(context.Background(), entry))
	line = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.NotContains(t, line, "body")
}

type failingSink struct{ calls int }

func (f *failingSink) Record(context.Context, Entry) error {
	f.calls++
	return errors.New("disco cheio")
}

func TestMulti_DeliversToAll(t *testing.T) {
	first := &failingSink{}
	second := &failingSink{}

	err := Multi{first, Nop{}, second}.Record(context.Background(), sampleEntry())
	assert.ErrorContains(t, err, "disco cheio")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)

	assert.NoError(t, Multi{}.Record(context.Background(), sampleEntry()))
}
