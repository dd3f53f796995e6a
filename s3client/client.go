package s3client

import (
	"text2phenotype.com/qde/logger"
	"bytes"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"sync"
)

const maxRetries = 4

var errNoSession = errors.New("no S3 session")

// Client shares one AWS session between callers. A failed call refreshes
// the session and is retried once; concurrent failures on the same session
// refresh it only once.
type Client struct {
	bucketName string
	connect    func() (*session.Session, error)

	mu   sync.RWMutex
	sess *session.Session
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

func New() (*Client, error) {
	errLogger := clientLogger.With().Caller().Logger()
	env, err := readEnvironment(&errLogger)
	if err != nil {
		clientLogger.Err(err).Msg("Failed to get proper variables from environment")
		return nil, err
	}
	client := &Client{bucketName: env.BucketName, connect: env.newSession}
	if _, err := client.refresh(nil); err != nil {
		return nil, err
	}
	return client, nil
}

// Upload stores data under key.
func (client *Client) Upload(data []byte, key string, contentType string) (*s3manager.UploadOutput, error) {
	var output *s3manager.UploadOutput
	err := client.withSession(func(sess *session.Session) (err error) {
		output, err = upload(sess, &s3manager.UploadInput{
			Bucket:      aws.String(client.bucketName),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		return err
	})
	return output, err
}

func (client *Client) Download(key string) ([]byte, error) {
	var data []byte
	err := client.withSession(func(sess *session.Session) (err error) {
		data, err = download(sess, &s3.GetObjectInput{
			Bucket: aws.String(client.bucketName),
			Key:    aws.String(key),
		})
		return err
	})
	return data, err
}

// Close drops the session; later calls open a new one.
func (client *Client) Close() {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.sess = nil
	clientLogger.Info().Msg("Closed client")
}

func (client *Client) withSession(op func(sess *session.Session) error) error {
	sess := client.current()
	if sess == nil {
		var err error
		if sess, err = client.refresh(nil); err != nil {
			return err
		}
	}
	err := op(sess)
	if err == nil {
		return nil
	}

	clientLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
	fresh, refreshErr := client.refresh(sess)
	if refreshErr != nil {
		clientLogger.Error().Err(refreshErr).Msg("Caught error while refreshing S3 session")
		return fmt.Errorf("%w (session refresh failed: %v)", err, refreshErr)
	}
	return op(fresh)
}

func (client *Client) current() *session.Session {
	client.mu.RLock()
	defer client.mu.RUnlock()
	return client.sess
}

// refresh replaces stale with a new session, unless another caller already
// replaced it, in which case that session is returned.
func (client *Client) refresh(stale *session.Session) (*session.Session, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.sess != nil && client.sess != stale {
		return client.sess, nil
	}
	sess, err := client.connect()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errNoSession
	}
	client.sess = sess
	clientLogger.Info().Msg("Successfully refreshed session")
	return sess, nil
}

func upload(sess *session.Session, params *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
	keyLogger, sdkLog := objectLoggers(*params.Bucket, *params.Key)
	uploader := s3manager.NewUploader(sess.Copy(&aws.Config{Logger: getLogger(sdkLog)}))
	keyLogger.Debug().Msg("Uploading the file")
	output, err := uploader.Upload(params)
	if err != nil {
		keyLogger.Error().Err(err).Msg("Failed to upload file")
		return nil, err
	}
	return output, nil
}

func download(sess *session.Session, params *s3.GetObjectInput) ([]byte, error) {
	keyLogger, sdkLog := objectLoggers(*params.Bucket, *params.Key)
	downloader := s3manager.NewDownloader(sess.Copy(&aws.Config{Logger: getLogger(sdkLog)}))
	buf := aws.NewWriteAtBuffer([]byte{})

	keyLogger.Debug().Msg("Downloading file")
	size, err := downloader.Download(buf, params)
	if err != nil {
		keyLogger.Error().Err(err).Msg("Failed to download file")
		return nil, err
	}
	keyLogger.Debug().Int64("size", size).Msg("Downloaded file")
	return buf.Bytes(), nil
}

func objectLoggers(bucket string, key string) (zerolog.Logger, zerolog.Logger) {
	keyLogger := clientLogger.With().Str("key", key).Str("bucket", bucket).Logger()
	sdkLog := sdkLogger.With().Str("key", key).Str("bucket", bucket).Logger()
	return keyLogger, sdkLog
}

type EnvironmentConfig struct {
	BucketName  string `envconfig:"MDL_COMN_STORAGE_CONTAINER_NAME" required:"true"`
	T2PEnv      string `envconfig:"T2P_ENV" required:"true"`
	Region      string `envconfig:"MDL_COMN_AWS_REGION_NAME" required:"true"`
	AwsEndpoint string `envconfig:"MDL_COMN_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"MDL_COMN_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"MDL_COMN_AWS_ACCESS_KEY" default:""`
}

func readEnvironment(errLogger *zerolog.Logger) (EnvironmentConfig, error) {
	var config EnvironmentConfig
	if err := envconfig.Process("", &config); err != nil {
		errLogger.Err(err).Msg("Got error while processing environment")
		return config, err
	}
	return config, nil
}

// newSession tries the instance role first and falls back to static
// credentials from the environment.
func (env EnvironmentConfig) newSession() (*session.Session, error) {
	if sess, err := verifiedSession(env.instanceConfig()); err == nil {
		clientLogger.Info().Msg("S3 session initialized using EC2")
		return sess, nil
	}
	clientLogger.Info().Msg("Could not initialize S3 session using EC2, trying env credentials")
	cfg, err := env.staticConfig()
	if err != nil {
		return nil, err
	}
	sess, err := verifiedSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not initialize S3 session: %w", err)
	}
	clientLogger.Info().Msg("S3 session initialized using env credentials")
	return sess, nil
}

func (env EnvironmentConfig) instanceConfig() *aws.Config {
	return aws.NewConfig().
		WithRegion(env.Region).
		WithMaxRetries(maxRetries).
		WithLogLevel(aws.LogDebug)
}

func (env EnvironmentConfig) staticConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(env.AccessKeyID, env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		return nil, fmt.Errorf("credentials from environment: %w", err)
	}
	cfg := env.instanceConfig().WithCredentials(creds)
	if env.T2PEnv == "dev" && len(env.AwsEndpoint) > 0 {
		cfg = cfg.WithEndpoint(env.AwsEndpoint).WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

func verifiedSession(cfg *aws.Config) (*session.Session, error) {
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err != nil {
		return nil, err
	}
	return sess, nil
}

// sdkLogAdapter routes AWS SDK debug output to zerolog.
type sdkLogAdapter struct {
	target zerolog.Logger
}

func getLogger(target zerolog.Logger) aws.Logger {
	return sdkLogAdapter{target}
}

func (adapter sdkLogAdapter) Log(v ...interface{}) {
	adapter.target.Debug().Msg(fmt.Sprint(v...))
}
