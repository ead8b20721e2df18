package orders

import (
	"fmt"
	"time"
)

const codePrefix = "CM"

// MintCode builds the public order code: prefix, date, delivery tag, payment
// tag, member id padded to 2 digits, order id padded to 3. The order id part
// makes the code unique; it can only be minted after the header row exists.
// Display artifact only, never a key.
func MintCode(now time.Time, delivery DeliveryMethod, payment PaymentMethod, memberID, orderID int64) string {
	return fmt.Sprintf("%s%s%s%s%02d%03d",
		codePrefix, now.Format("20060102"), delivery.Code(), payment.Code(), memberID, orderID)
}
