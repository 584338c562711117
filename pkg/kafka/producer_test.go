package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)
}

func TestEncodeValue(t *testing.T) {
	b, isJSON, err := encodeValue(map[string]int{"rating": 5})
	require.NoError(t, err)
	assert.True(t, isJSON)
	assert.JSONEq(t, `{"rating":5}`, string(b))

	b, isJSON, err = encodeValue("raw")
	require.NoError(t, err)
	assert.False(t, isJSON)
	assert.Equal(t, "raw", string(b))

	_, _, err = encodeValue(make(chan int))
	assert.Error(t, err)
}

func TestToKafkaMessagesHeaders(t *testing.T) {
	now := time.Unix(1700000000, 0)
	msgs, size, err := toKafkaMessages([]Message{
		{Key: []byte("k"), Value: map[string]string{"a": "b"}, Headers: map[string]string{"event": "feedback"}},
		{Value: []byte("xy")},
	}, now)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(len(`{"a":"b"}`)+2), size)

	assert.ElementsMatch(t, []kafka.Header{
		{Key: HeaderContentType, Value: []byte("application/json")},
		{Key: "event", Value: []byte("feedback")},
	}, msgs[0].Headers)
	assert.Empty(t, msgs[1].Headers)
	assert.Equal(t, now, msgs[1].Time)
}

func TestToKafkaMessagesRejectsWholeBatch(t *testing.T) {
	_, _, err := toKafkaMessages([]Message{{Value: "ok"}, {Value: func() {}}}, time.Now())
	assert.ErrorContains(t, err, "message 1")
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression("unknown"))
}

func TestProducerBuildsWriter(t *testing.T) {
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithHashByKey(true), WithAsync(true))
	require.NoError(t, err)
	_, isHash := p.writer.Balancer.(*kafka.Hash)
	assert.True(t, isHash)
	assert.True(t, p.writer.Async)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), "t", nil, "x"), ErrClosed)
}
