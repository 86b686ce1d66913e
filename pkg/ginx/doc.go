// Package ginx 提供 gin 框架的 handler 适配器，支持自动参数绑定和响应处理
//
// 所有接口都是 POST-RPC 风格：请求体是 JSON，响应体也是 JSON。
// 空请求体等价于空对象 {}，但仍会执行 binding 校验。
//
// handler 函数签名：
//
//	func(c *gin.Context, args *Args) (resp, error)
//
// 业务错误到 HTTP 状态码的映射通过 SetErrorStatus 注入，
// 默认所有错误都是 500。
//
// 使用示例：
//
//	router := gin.Default()
//	ginx.SetErrorStatus(func(err error) int {
//	    var verr *myValidationError
//	    if errors.As(err, &verr) {
//	        return http.StatusBadRequest
//	    }
//	    return http.StatusInternalServerError
//	})
//	router.POST("/articles/create", ginx.Adapt(func(c *gin.Context, args *CreateArticleArgs) (*Article, error) {
//	    return &Article{...}, nil
//	}))
package ginx
