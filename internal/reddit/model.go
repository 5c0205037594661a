package reddit

// Response — корень ответа листинга Reddit (`/r/<sub>/hot.json`).
// Data == nil означает, что полезных данных в ответе нет.
type Response struct {
	Data *Listing `json:"data"`
}

// Listing хранит посты в порядке ранжирования API.
type Listing struct {
	Children []Child `json:"children"`
}

// Child — обёртка Reddit над одной записью листинга.
type Child struct {
	Data Post `json:"data"`
}

// Post — то, что публикуется дальше: заголовок и ссылка.
// URL не валидируется, Title может быть пустым.
type Post struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Posts возвращает посты в исходном порядке или nil, если ответ
// или его data отсутствуют.
func (r *Response) Posts() []Post {
	if r == nil || r.Data == nil {
		return nil
	}
	posts := make([]Post, 0, len(r.Data.Children))
	for _, c := range r.Data.Children {
		posts = append(posts, c.Data)
	}
	return posts
}

// HasData сообщает, пришёл ли в ответе блок data.
func (r *Response) HasData() bool {
	return r != nil && r.Data != nil
}
