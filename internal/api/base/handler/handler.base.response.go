// Package basehdl cung cấp các tiện ích xử lý request/response cho tầng handler
package basehdl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"live_support/internal/common"
	"live_support/internal/global"
)

// BaseHandler chứa các phương thức dùng chung cho mọi domain handler
type BaseHandler struct{}

// JSONResponse trả về JSON response với Content-Type: application/json; charset=utf-8
// Helper function này đảm bảo tất cả JSON responses đều có charset=utf-8 để hỗ trợ UTF-8 đúng cách
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	c.Set("Content-Type", "application/json; charset=utf-8")
	return c.Status(statusCode).JSON(data)
}

// SafeHandler bọc các handler với recover để bắt panic và xử lý lỗi an toàn.
// Hàm này đảm bảo rằng server luôn trả về response cho client, kể cả khi có panic xảy ra.
//
// Tham số:
// - c: Fiber context
// - handler: Function xử lý chính của handler
func (h *BaseHandler) SafeHandler(c fiber.Ctx, handler func() error) error {
	defer func() {
		if r := recover(); r != nil {
			// Log stack trace để debug
			debug.PrintStack()

			// Trả về lỗi cho client
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Lỗi hệ thống không mong muốn: %v", r),
				common.StatusInternalServerError,
				nil,
			))
		}
	}()
	return handler()
}

// HandleResponse xử lý và chuẩn hóa response trả về cho client.
// Phương thức này đảm bảo format response thống nhất trong toàn bộ ứng dụng.
//
// Tham số:
// - c: Fiber context
// - data: Dữ liệu trả về cho client (có thể là nil nếu chỉ trả về lỗi)
// - err: Lỗi nếu có (nil nếu không có lỗi)
func (h *BaseHandler) HandleResponse(c fiber.Ctx, data interface{}, err error) {
	if err != nil {
		var customErr *common.Error
		if errors.As(err, &customErr) {
			JSONResponse(c, customErr.StatusCode, fiber.Map{
				"code":    customErr.Code.Code,
				"message": customErr.Message,
				"details": customErr.Details,
				"status":  "error",
			})
			return
		}
		// Nếu không phải custom error, trả về internal server error
		JSONResponse(c, common.StatusInternalServerError, fiber.Map{
			"code":    common.ErrCodeInternalServer.Code,
			"message": err.Error(),
			"status":  "error",
		})
		return
	}

	// Trường hợp thành công
	JSONResponse(c, common.StatusOK, fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    data,
		"status":  "success",
	})
}

// ParseRequestBody parse và validate dữ liệu từ request body.
// Sử dụng json.Decoder với UseNumber() để xử lý chính xác các số.
//
// Tham số:
// - c: Fiber context
// - input: Con trỏ tới struct sẽ chứa dữ liệu được parse
//
// Trả về:
// - error: Lỗi nếu có trong quá trình parse hoặc validate
func (h *BaseHandler) ParseRequestBody(c fiber.Ctx, input interface{}) error {
	body := c.Body()
	reader := bytes.NewReader(body)
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()
	if err := decoder.Decode(input); err != nil {
		return common.NewError(common.ErrCodeValidationFormat, common.MsgValidationError, common.StatusBadRequest, err)
	}

	// Validate struct với các tag validate
	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err)
	}

	return nil
}

// ParseObjectID lấy và validate một ObjectID từ URI params
// Tham số:
// - c: Fiber context
// - name: Tên param trong URI
func (h *BaseHandler) ParseObjectID(c fiber.Ctx, name string) (primitive.ObjectID, error) {
	raw := c.Params(name)
	if raw == "" {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Tham số %s không được để trống trong URL", name),
			common.StatusBadRequest,
			nil,
		)
	}

	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Tham số %s '%s' không đúng định dạng MongoDB ObjectID (phải là chuỗi hex 24 ký tự)", name, raw),
			common.StatusBadRequest,
			err,
		)
	}

	return id, nil
}

// ParseHexID chuyển một chuỗi hex (từ request body) sang ObjectID
func (h *BaseHandler) ParseHexID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Giá trị '%s' không đúng định dạng MongoDB ObjectID (phải là chuỗi hex 24 ký tự)", raw),
			common.StatusBadRequest,
			err,
		)
	}
	return id, nil
}

// CurrentUserID lấy user id của admin đã xác thực từ Locals (do AuthMiddleware gắn)
func (h *BaseHandler) CurrentUserID(c fiber.Ctx) (primitive.ObjectID, error) {
	raw, _ := c.Locals("user_id").(string)
	if raw == "" {
		return primitive.NilObjectID, common.ErrTokenMissing
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, common.ErrTokenInvalid
	}
	return id, nil
}

// ParsePagination lấy page và limit từ query string với giá trị mặc định
func (h *BaseHandler) ParsePagination(c fiber.Ctx) (page int64, limit int64) {
	page = 1
	limit = 20

	if raw := c.Query("page", ""); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			page = v
		}
	}
	if raw := c.Query("limit", ""); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	return page, limit
}
