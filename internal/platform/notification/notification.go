// Package notification announces finished report exports to downstream
// consumers over SQS.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Notice is the message body published for every archived export.
type Notice struct {
	Bucket     string    `json:"bucket,omitempty"`
	Key        string    `json:"key"`
	Format     string    `json:"format"`
	Period     string    `json:"period"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Nop drops every notice.
type Nop struct{}

func (Nop) Notify(context.Context, Notice) error { return nil }

// SQSAPI is the subset of *sqs.Client the notifier needs.
type SQSAPI interface {
	GetQueueUrl(ctx context.Context, in *sqs.GetQueueUrlInput, opts ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier sends each notice as a JSON message. The queue URL is resolved
// on first use and cached.
type SQSNotifier struct {
	client SQSAPI
	queue  string

	mu       sync.Mutex
	queueURL string
}

func NewSQSNotifier(client SQSAPI, queue string) *SQSNotifier {
	return &SQSNotifier{client: client, queue: queue}
}

// NewSQSClient builds an SQS client sharing region, credentials and endpoint
// with the rest of the AWS wiring.
func NewSQSClient(cfg aws.Config) *sqs.Client {
	return sqs.New(sqs.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
	})
}

func (n *SQSNotifier) url(ctx context.Context) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.queueURL != "" {
		return n.queueURL, nil
	}
	out, err := n.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(n.queue)})
	if err != nil {
		return "", fmt.Errorf("resolve queue %s: %w", n.queue, err)
	}
	n.queueURL = aws.ToString(out.QueueUrl)
	return n.queueURL, nil
}

func (n *SQSNotifier) Notify(ctx context.Context, notice Notice) error {
	url, err := n.url(ctx)
	if err != nil {
		return err
	}
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	_, err = n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("send notice: %w", err)
	}
	return nil
}

// Recorder keeps notices in memory. Tests use it to assert what was sent.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
	Err     error
}

func (r *Recorder) Notify(_ context.Context, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.notices = append(r.notices, n)
	return nil
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}
