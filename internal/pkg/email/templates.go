package email

import "fmt"

// PasswordResetHTML renders the password reset code email body.
func PasswordResetHTML(name, code string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="margin:0;padding:0;background:#faf9f6;font-family:-apple-system,'Segoe UI',Roboto,Arial,sans-serif;">
  <div style="max-width:600px;margin:0 auto;padding:40px 20px;">
    <div style="background:#ffffff;border-radius:12px;padding:32px;border:1px solid #eee;">
      <h1 style="font-size:24px;color:#e8590c;margin:0 0 16px;">PratoShot</h1>
      <h2 style="font-size:20px;color:#222;margin:0 0 16px;">Redefinição de senha</h2>
      <p style="color:#666;font-size:16px;line-height:1.6;">Olá %s,</p>
      <p style="color:#666;font-size:16px;line-height:1.6;">Use o código abaixo para redefinir sua senha. Ele expira em 15 minutos.</p>
      <p style="font-size:32px;letter-spacing:8px;font-weight:700;color:#222;text-align:center;margin:24px 0;">%s</p>
      <p style="color:#999;font-size:13px;">Se você não pediu a redefinição, ignore este email.</p>
    </div>
  </div>
</body>
</html>`, name, code)
}
