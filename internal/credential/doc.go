// Package credential はローカル認証用の資格情報ディレクトリを提供する。
//
// 資格情報は起動時に一度だけ読み込まれ、プロセスの生存期間中は変更されない。
// 読み込み元はYAMLファイル（users.yml）またはSQLiteデータベース。
// シークレットは "{bcrypt}$2a$10$..." のようにハッシュ方式のタグを前置した形式で保持する。
//
//	localauth:
//	  users:
//	    - userId: "admin"
//	      password: "{bcrypt}$2a$10$LSFBr7wQG1/AIkEdTzXOjOhK5lINUk4nQYfGKCjGvpe6m3XXUVE7y"
//	      roles:
//	        - administrator
package credential
