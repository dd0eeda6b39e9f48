// Package discourse provides a client for the Discourse forum REST API.
//
// Every call goes through one pipeline: the request is built from a path, a
// query and a body, sent with the configured credentials, retried on
// redirects, rate limiting and upstream 5xx errors, and decoded into a
// Document that can be mapped onto typed results.
//
// # Usage
//
//	logger := zerolog.New(os.Stdout)
//	client, err := discourse.NewClient(discourse.Settings{
//		ServerURL:       "https://forum.example.com",
//		ApplicationName: "my-app",
//		APIKey:          "your-api-key",
//		APIUsername:     "system",
//	}, logger, discourse.WithTimeout(30*time.Second))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	page, err := client.ListTopics(ctx, 4, true, 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for topic, err := range page.All(ctx) {
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(topic.Title)
//	}
//
// # Retries
//
//   - 302 Found is followed to its Location after 1ms
//   - 429 Too Many Requests waits the larger of 5s and Retry-After
//   - 502, 503 and 504 back off 1s, 2s, 4s and 8s, then the response is returned
//
// # Request bodies
//
// A body passed to Post or Put is encoded according to its type:
//
//   - *Stream and *os.File are sent raw as an attachment
//   - *MultipartForm is sent as multipart/form-data
//   - string is sent as text/plain, url.Values as a form
//   - anything else is flattened into form fields (outer[inner]=value, outer[]=value)
//
// # Error Handling
//
// Non-success responses, and success responses that carry an error record,
// return an *APIError:
//
//	if apiErr, ok := discourse.AsAPIError(err); ok && apiErr.IsNotFound() {
//		// Handle missing resource
//	}
package discourse
