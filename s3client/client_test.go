package s3client

import (
	"errors"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestStaticConfigUsesEndpointOnlyInDev(t *testing.T) {
	env := EnvironmentConfig{
		Region:      "us-east-1",
		T2PEnv:      "dev",
		AwsEndpoint: "http://localstack:4566",
		AccessKeyID: "id",
		AccessKey:   "key",
	}
	cfg, err := env.staticConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localstack:4566", aws.StringValue(cfg.Endpoint))
	assert.True(t, aws.BoolValue(cfg.S3ForcePathStyle))
	assert.Equal(t, "us-east-1", aws.StringValue(cfg.Region))
	assert.Equal(t, maxRetries, aws.IntValue(cfg.MaxRetries))

	env.T2PEnv = "prod"
	cfg, err = env.staticConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg.Endpoint)
}

func TestStaticConfigRequiresCredentials(t *testing.T) {
	_, err := EnvironmentConfig{Region: "us-east-1"}.staticConfig()
	assert.Error(t, err)
}

func newTestClient(connect func() (*session.Session, error)) *Client {
	return &Client{bucketName: "bucket", connect: connect}
}

func TestWithSessionRetriesOnFreshSession(t *testing.T) {
	first, second := &session.Session{}, &session.Session{}
	sessions := []*session.Session{first, second}
	connects := 0
	client := newTestClient(func() (*session.Session, error) {
		sess := sessions[connects]
		connects++
		return sess, nil
	})

	var used []*session.Session
	err := client.withSession(func(sess *session.Session) error {
		used = append(used, sess)
		if sess == first {
			return errors.New("expired token")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, connects)
	require.Len(t, used, 2)
	assert.Same(t, first, used[0])
	assert.Same(t, second, used[1])
	assert.Same(t, second, client.current())
}

func TestRefreshKeepsNewerSession(t *testing.T) {
	stale, newer := &session.Session{}, &session.Session{}
	connects := 0
	client := newTestClient(func() (*session.Session, error) {
		connects++
		return &session.Session{}, nil
	})
	client.sess = newer

	sess, err := client.refresh(stale)
	require.NoError(t, err)
	assert.Same(t, newer, sess)
	assert.Equal(t, 0, connects)
}

func TestWithSessionReportsRefreshFailure(t *testing.T) {
	client := newTestClient(func() (*session.Session, error) {
		return nil, errors.New("no credentials")
	})
	client.sess = &session.Session{}

	calls := 0
	err := client.withSession(func(sess *session.Session) error {
		calls++
		return errors.New("access denied")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Contains(t, err.Error(), "no credentials")
	assert.Equal(t, 1, calls)

	client.Close()
	assert.Nil(t, client.current())
}
