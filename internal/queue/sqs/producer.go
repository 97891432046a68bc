package sqsqueue

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type Producer struct {
	SQS      *sqs.Client
	QueueURL string
}

// ExecuteJob asks a worker to run the fan-out for one broadcast.
type ExecuteJob struct {
	BroadcastID string `json:"broadcastId"`
	ContentID   string `json:"contentId"`
	Urgent      bool   `json:"urgent,omitempty"`
}

func (p *Producer) EnqueueExecute(ctx context.Context, job ExecuteJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	// FIFO grouping per broadcast: one broadcast never fans out from two
	// workers at once, and a re-enqueue of the same broadcast dedupes.
	_, err = p.SQS.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:               &p.QueueURL,
		MessageBody:            str(string(body)),
		MessageGroupId:         str(executeGroupID(job.BroadcastID)),
		MessageDeduplicationId: str(job.BroadcastID),
	})
	return err
}

func executeGroupID(broadcastID string) string {
	return "broadcast:" + broadcastID
}

func str(s string) *string { return &s }
