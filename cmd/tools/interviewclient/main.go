package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/mock-interview/backend/internal/client"
	"github.com/zhouzirui/mock-interview/backend/internal/config"
	"github.com/zhouzirui/mock-interview/backend/internal/recorder"
	"github.com/zhouzirui/mock-interview/backend/pkg/logger"
)

// speechRate 与浏览器端朗读速度一致
const speechRate = 0.9

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	server := flag.String("server", "http://localhost:8080", "面试服务地址")
	session := flag.String("session", "", "自定义 sessionID，留空则自动生成")
	timeout := flag.Duration("timeout", 60*time.Second, "单次请求超时时间")
	chunkSize := flag.Int("chunk", 16*1024, "模拟录音的分片大小（字节）")
	skipGreeting := flag.Bool("no-greeting", false, "跳过开场问候")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: interviewclient [flags] question1.webm [question2.webm ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	zlog, err := logger.New(logger.Options{Env: cfg.Log.Env, Level: cfg.Log.Level})
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	mic := &fileMicrophone{chunkSize: *chunkSize}
	rec := recorder.New(mic, client.New(*server, nil), consoleSpeaker{},
		recorder.WithSessionID(*session),
		recorder.WithRequestTimeout(*timeout),
		recorder.WithLogger(zlog))
	rec.OnStateChange(func(s recorder.State) {
		fmt.Printf("[%s]\n", s.Label())
	})

	ctx := context.Background()
	fmt.Printf("session=%s\n", rec.SessionID())
	if !*skipGreeting {
		rec.Boot(ctx)
	}

	for _, path := range files {
		mic.path = path

		if err := rec.Start(ctx); err != nil {
			zlog.Error("start recording failed", zap.String("file", path), zap.Error(err))
			continue
		}
		ex, err := rec.Stop(ctx)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Printf("Q: %s\n", ex.Question)
	}

	fmt.Println("--- transcript ---")
	for _, ex := range rec.Transcript() {
		if ex.Question != "" {
			fmt.Printf("Interviewer: %s\n", ex.Question)
		}
		fmt.Printf("Candidate:   %s\n", ex.Answer)
	}
}

// fileMicrophone 用音频文件模拟麦克风
type fileMicrophone struct {
	path      string
	chunkSize int
}

func (m *fileMicrophone) Open(ctx context.Context) (recorder.CaptureStream, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, err
	}

	size := m.chunkSize
	if size <= 0 {
		size = len(data)
	}

	ch := make(chan []byte, len(data)/max(size, 1)+1)
	for offset := 0; offset < len(data); offset += size {
		ch <- data[offset:min(offset+size, len(data))]
	}
	close(ch)
	return &fileStream{chunks: ch, mimeType: mime.TypeByExtension(filepath.Ext(m.path))}, nil
}

type fileStream struct {
	chunks   chan []byte
	mimeType string
}

func (s *fileStream) MimeType() string { return s.mimeType }

func (s *fileStream) Chunks() <-chan []byte { return s.chunks }

func (s *fileStream) Close() error { return nil }

// consoleSpeaker 把回答打印到终端代替朗读
type consoleSpeaker struct{}

func (consoleSpeaker) Speak(_ context.Context, text string) error {
	fmt.Printf("A (rate %.1f): %s\n", speechRate, text)
	return nil
}
