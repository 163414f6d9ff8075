package merchant

import (
	handlershared "github.com/affiliate-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getMerchantID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "merchant_id", "error.merchant_id_invalid", "error.merchant_id_type_invalid")
}
