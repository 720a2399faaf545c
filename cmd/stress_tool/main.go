package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// 并发点赞压测：每个用户对同一帖子点赞 toggles 次，结束后校验 likes == len(likedBy)
var (
	baseURL    = flag.String("url", "http://localhost:8080", "server base URL")
	totalUsers = flag.Int("users", 200, "number of concurrent users")
	toggles    = flag.Int("toggles", 3, "like toggles per user")
	postID     = flag.String("post", "101", "target post id")
	httpClient *http.Client
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func init() {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 500
	t.MaxIdleConnsPerHost = 500
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

func main() {
	flag.Parse()

	// 1. 注册压测用户
	run := time.Now().UnixNano()
	tokens := make([]string, 0, *totalUsers)
	for i := 0; i < *totalUsers; i++ {
		tok, err := signup(fmt.Sprintf("stress_%d_%d", run, i))
		if err != nil {
			fmt.Printf("注册失败: %v\n", err)
			os.Exit(1)
		}
		tokens = append(tokens, tok)
	}

	fmt.Printf("开始压测：%d 个用户，每人点赞切换 %d 次 (PostID: %s)...\n", *totalUsers, *toggles, *postID)

	// 2. 并发点赞
	var wg sync.WaitGroup
	var success, fail atomic.Int64
	start := time.Now()

	for _, tok := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			for j := 0; j < *toggles; j++ {
				if toggleLike(token) {
					success.Add(1)
				} else {
					fail.Add(1)
				}
			}
		}(tok)
	}

	wg.Wait()
	duration := time.Since(start)
	total := *totalUsers * *toggles

	// 3. 校验一致性
	likes, likedBy, err := fetchPost()
	if err != nil {
		fmt.Printf("读取帖子失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("总请求数: %d, QPS: %.2f\n", total, float64(total)/duration.Seconds())
	fmt.Printf("成功: %d, 失败: %d\n", success.Load(), fail.Load())
	fmt.Printf("likes: %d, len(likedBy): %d\n", likes, likedBy)
	fmt.Println("--------------------------------------------------")

	if likes != likedBy {
		fmt.Println("一致性校验失败")
		os.Exit(1)
	}
}

func call(method, path, token string, payload any) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, *baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || env.Code != 0 {
		return &env, fmt.Errorf("status %d code %d: %s", resp.StatusCode, env.Code, env.Message)
	}
	return &env, nil
}

func signup(username string) (string, error) {
	env, err := call(http.MethodPost, "/auth/signup", "", map[string]string{
		"username":        username,
		"password":        "stress",
		"confirmPassword": "stress",
		"name":            username,
		"role":            "mentee",
	})
	if err != nil {
		return "", err
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func toggleLike(token string) bool {
	_, err := call(http.MethodPost, "/forum/posts/"+*postID+"/like", token, nil)
	return err == nil
}

func fetchPost() (int, int, error) {
	env, err := call(http.MethodGet, "/forum/posts/"+*postID, "", nil)
	if err != nil {
		return 0, 0, err
	}
	var post struct {
		Likes   int               `json:"likes"`
		LikedBy []json.RawMessage `json:"likedBy"`
	}
	if err := json.Unmarshal(env.Data, &post); err != nil {
		return 0, 0, err
	}
	return post.Likes, len(post.LikedBy), nil
}
